// Package ime connects input sessions to the IBus input method framework.
//
// IBus asks the Factory for one engine per input context. Each Engine owns
// a session.Loop and the session.Controller running on it; every D-Bus call
// is forwarded to the loop with Loop.Do, so a controller is only ever
// touched from its own goroutine. The controller draws through two
// adapters:
//
//	session.Host            -> UpdatePreeditText, CommitText,
//	                           UpdateAuxiliaryText
//	session.CandidateWindow -> UpdateLookupTable
//
// IBus values (IBusText, IBusAttrList, IBusLookupTable, IBusProperty) are
// D-Bus structures whose first two members are the type name and an empty
// attachment dictionary; see serialize.go.
package ime
