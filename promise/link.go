package promise

import "github.com/aauto/aauto/aautoerr"

// Link forwards the terminal state of an internal Promise to a
// caller-supplied Promise, possibly bound to a different Strand. Channel.Send
// uses this to bridge between the Messenger's send strand and the caller's
// own strand, mirroring the original design's PromiseLink helper.
func Link[T any](internal *Promise[T], caller *Promise[T]) {
	internal.Then(
		func(v T) { caller.Resolve(v) },
		func(e *aautoerr.Error) { caller.Reject(e) },
	)
}
