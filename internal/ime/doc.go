// Package ime turns classified key events into quwei commits.
//
// The package is split into three layers:
//
//	KeyMap      keysym + modifier state → Action
//	Controller  per-session state machine (Idle, Entering, Paged)
//	Engine      process-wide owner of the Mapper, the session Registry,
//	            punctuation, quick phrase and commit history
//
// Frontends implement Host to receive commits and display updates. The IBus
// frontend (Linux only) exports an org.freedesktop.IBus.Factory that creates
// one org.freedesktop.IBus.Engine object per input context.
//
//	ProcessKeyEvent → KeyMap.Classify → Engine.HandleAction → Host
//	                                               ↓
//	                                   CommitText / UpdateLookupTable
package ime
