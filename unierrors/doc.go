/*
Unijson error model definition and default error types.

Every failure of a Dumps / Loads call surfaces as an *Error carrying one of the
ErrorType values declared in this package:

• ErrorType defines a kind of failure (UnencodableType, UnresolvableType, ...).

• Error is an instance of a failure which carries its ErrorType, a message, an ID and
optional data describing the offending value or type.

Checking Error Kinds

ErrorType values implement error, so they can be used as xerrors.Is targets:

	if xerrors.Is(err, unierrors.UnresolvableType) {
		// ...
	}
*/
package unierrors
