// Package pkg provides the core libraries for the kintree family tree editor.
//
// # Overview
//
// Kintree keeps a relationship graph of people consistent under every edit
// and lays it out as a generational chart. The pkg directory is organized
// into a few areas:
//
//  1. [tree] - Domain logic (people, relationship integrity, layered layout)
//  2. [editor] - Mutation orchestration over a shared graph snapshot
//  3. [codec], [store] - Interchange documents and persistence backends
//  4. [render], [cache] - Chart artifacts and their content-hash keyed cache
//
// # Architecture
//
// The typical data flow through kintree:
//
//	Interchange Document / HTTP edit
//	         ↓
//	[editor] validate → clone → mutate → adopt
//	         ↓
//	[tree] relationship graph (acyclic, symmetric siblings)
//	         ↓
//	[tree/layout] generations + 3-pass horizontal positioning
//	         ↓
//	[render] SVG / DOT / PNG / JSON artifacts
//	         ↓
//	[store] file, memory or Mongo persistence (+ timestamped snapshots)
//
// Every mutation flows through the editor, which persists asynchronously:
// callers never wait on disk or network writes, and write failures surface
// as logged warnings rather than errors.
package pkg
