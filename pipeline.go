package htmledit

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Env holds the state shared by all pipelines of a run. It is not safe for
// concurrent use. NewEnv fills in the defaults; an Env built directly only
// needs an Index. A nil Logger discards all output, FROM-FILE fails without a
// Loader.
type Env struct {
	Index  *Index
	Logger *zap.Logger
	Loader Loader
	loaded map[string]NodeID // FROM-FILE roots by path
	path   []int             // positions of the running sub-pipelines
}

// Option configures an Env.
type Option func(*Env)

// WithLogger sets the logger for warnings. The default discards all
// output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Env) {
		if l != nil {
			e.Logger = l
		}
	}
}

// WithLoader sets the loader used by FROM-FILE.
func WithLoader(l Loader) Option {
	return func(e *Env) {
		e.Loader = l
	}
}

// NewEnv returns an environment for running pipelines on idx.
func NewEnv(idx *Index, opts ...Option) *Env {
	env := &Env{
		Index:  idx,
		Logger: zap.NewNop(),
		Loader: FileLoader{},
		loaded: make(map[string]NodeID),
	}
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// Pipeline is a sequence of processing commands. Each command gets the
// result of the previous one.
type Pipeline []ProcessingCommand

// Run executes the commands in order, starting with input. An empty
// intermediate result is logged and passed on.
func (p Pipeline) Run(env *Env, input []NodeID) ([]NodeID, error) {
	return p.run(env, 0, input)
}

// run executes p with the commands numbered from offset.
func (p Pipeline) run(env *Env, offset int, input []NodeID) ([]NodeID, error) {
	current := input
	for i, cmd := range p {
		pos := offset + i
		env.path = append(env.path, pos)
		result, err := cmd.execute(env, current)
		if err == nil && len(result) == 0 {
			env.warnEmpty(cmd.Name())
		}
		env.path = env.path[:len(env.path)-1]
		if err != nil {
			return nil, wrapCommand(pos, cmd.Name(), err)
		}
		current = result
	}
	return current, nil
}

// logger returns the logger of env or a no-op logger.
func (env *Env) logger() *zap.Logger {
	if env.Logger == nil {
		return zap.NewNop()
	}
	return env.Logger
}

// cached returns the FROM-FILE root loaded for path.
func (env *Env) cached(path string) (NodeID, bool) {
	root, ok := env.loaded[path]
	return root, ok
}

func (env *Env) remember(path string, root NodeID) {
	if env.loaded == nil {
		env.loaded = make(map[string]NodeID)
	}
	env.loaded[path] = root
}

func (env *Env) warnEmpty(name string) {
	env.logger().Warn("empty intermediate result",
		zap.String("command", name),
		zap.Ints("path", append([]int(nil), env.path...)),
	)
}

// CreatingPipeline makes new nodes with its creating command and then runs
// the processing commands on them. The creating command has position 0.
type CreatingPipeline struct {
	Command  CreatingCommand
	Pipeline Pipeline
}

// Run creates the nodes from input and processes them.
func (cp CreatingPipeline) Run(env *Env, input []NodeID) ([]NodeID, error) {
	env.path = append(env.path, 0)
	created, err := cp.Command.create(env, input)
	if err == nil && len(created) == 0 {
		env.warnEmpty(cp.Command.Name())
	}
	env.path = env.path[:len(env.path)-1]
	if err != nil {
		return nil, wrapCommand(0, cp.Command.Name(), err)
	}
	return cp.Pipeline.run(env, 1, created)
}

// StringPipeline computes strings for one node: the selecting command picks
// the context nodes, the extracting command reads the values.
type StringPipeline struct {
	Select  SelectingCommand
	Extract ExtractingCommand
}

// Run returns the values for the node.
func (sp StringPipeline) Run(env *Env, id NodeID) ([]string, error) {
	nodes, err := sp.Select.choose(env, id)
	if err != nil {
		return nil, wrapCommand(0, sp.Select.Name(), err)
	}
	return sp.Extract.extract(env, nodes), nil
}

func (sp StringPipeline) resolve(env *Env, id NodeID) ([]string, error) {
	return sp.Run(env, id)
}

// Transform parses the command, reads the document from r, runs the
// pipeline on the document root and returns the rendered result nodes.
// The command is parsed before the document is read.
func Transform(r io.Reader, command string, opts ...Option) ([]string, error) {
	pipeline, err := ParsePipeline(command)
	if err != nil {
		return nil, err
	}
	idx, root, err := ParseHTML(r)
	if err != nil {
		return nil, err
	}
	env := NewEnv(idx, opts...)
	result, err := pipeline.Run(env, []NodeID{root})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(result))
	for _, id := range result {
		out = append(out, idx.OuterHTML(id))
	}
	return out, nil
}

// TransformString is Transform for markup in a string.
func TransformString(htmltext, command string, opts ...Option) (string, error) {
	out, err := Transform(strings.NewReader(htmltext), command, opts...)
	if err != nil {
		return "", fmt.Errorf("transform: %w", err)
	}
	return strings.Join(out, "\n"), nil
}
