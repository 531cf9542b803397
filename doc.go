// Package htmledit transforms HTML documents with a small pipeline language.
//
// A command string such as
//
//	ONLY{ul#menu} | FOR-EACH{li ↦ SET-ATTR{class ↤ 'item'}}
//
// is parsed into a Pipeline of commands. The commands select nodes with CSS
// selectors and mutate or copy them. The document is held in an Index, an
// arena of nodes addressed by NodeID. Equal ids name the same node, so
// changes made by one command are visible to all later ones; DeepCopy is the
// only way to get a node that is independent of the source tree.
//
// Transform and TransformString run a command string against markup and
// return the rendered result nodes.
package htmledit
