// Package events is the notification boundary of the store.
//
// The store only depends on the Emitter capability: a synchronous sink
// accepting (name, payload) and a way to register handlers by name.
// Bus is the in-process implementation used when no emitter is injected.
package events
