// Package errors defines the error handling used throughout c5store.
package errors

import (
	"bytes"
	"fmt"
	"runtime"

	"github.com/normano/c5store/log"
)

// Error is the type that implements the error interface.
// It contains a number of fields, each of different type.
// An Error value may leave some values unset.
type Error struct {
	// Path is the configuration key path of the item being accessed.
	Path Path
	// Op is the operation being performed, usually the name of the
	// method being invoked (Get, Set, Decrypt, etc).
	Op Op
	// Kind is the class of error, such as a missing key,
	// or Other if its class is unknown or irrelevant.
	Kind Kind
	// The underlying error that triggered this one, if any.
	Err error
}

// Path is the dot-separated key path an error pertains to.
type Path string

// Op is the name of the operation that failed, e.g. "Store.Get".
type Op string

var (
	_       error = (*Error)(nil)
	zeroErr Error
)

// Separator is the string used to separate nested errors. By default,
// to make errors easier on the eye, nested errors are indented on a
// new line. Callers may instead choose to keep each error on a single
// line by modifying the separator string, perhaps to ":: ".
var Separator = ":\n\t"

// Kind defines the kind of error this is, for callers that must act
// differently depending on the failure.
type Kind uint8

// Kinds of errors, matching the taxonomy of the store's error model.
const (
	Other               Kind = iota // Unclassified error; not printed in the message.
	Invalid                         // Ill-formed argument, path, or document.
	IO                              // Filesystem or environment I/O error.
	KeyNotFound                     // Typed read against an absent key.
	TypeMismatch                    // Projection to an incompatible variant.
	ConversionError                 // Right family, wrong range/format.
	DeserializationError            // Structured projection failed at a field.
	YAMLParse                       // Source document failed to parse as YAML.
	TOMLParse                       // Source document failed to parse as TOML.
	DotEnvLoad                      // Environment preload file failed to parse.
	SecretKeyNotFound               // Decryption key name not registered.
	UnknownAlgorithm                // Decryption algorithm name not registered.
	InvalidSecretFormat             // Secret wrapper value malformed.
	Decryption                      // Decryptor returned an error.
)

func (k Kind) String() string {
	switch k {
	case Other:
		return "other error"
	case Invalid:
		return "invalid argument"
	case IO:
		return "I/O error"
	case KeyNotFound:
		return "key not found"
	case TypeMismatch:
		return "type mismatch"
	case ConversionError:
		return "conversion error"
	case DeserializationError:
		return "deserialization error"
	case YAMLParse:
		return "YAML parse error"
	case TOMLParse:
		return "TOML parse error"
	case DotEnvLoad:
		return "dotenv load error"
	case SecretKeyNotFound:
		return "secret key not found"
	case UnknownAlgorithm:
		return "unknown algorithm"
	case InvalidSecretFormat:
		return "invalid secret format"
	case Decryption:
		return "decryption error"
	}
	return "unknown error kind"
}

// E builds an error value from its arguments.
// The type of each argument determines its meaning.
// If more than one argument of a given type is presented,
// only the last one is recorded.
//
// The types are:
//
//	errors.Path
//		The key path of the item being accessed.
//	errors.Op
//		The operation being performed, usually the method being
//		invoked (Get, Set, Decrypt, ...).
//	errors.Kind
//		The class of error, such as KeyNotFound.
//	error
//		The underlying error that triggered this one.
//
// If the error is printed, only those items that have been set to
// non-zero values will appear in the result.
//
// If Kind is not specified or Other, it is set to the Kind of the
// underlying error, if any.
func E(args ...interface{}) error {
	if len(args) == 0 {
		return nil
	}
	e := &Error{}
	for _, arg := range args {
		switch arg := arg.(type) {
		case Path:
			e.Path = arg
		case Op:
			e.Op = arg
		case Kind:
			e.Kind = arg
		case *Error:
			// Make a copy.
			e.Err = &Error{
				Path: arg.Path,
				Op:   arg.Op,
				Kind: arg.Kind,
				Err:  arg.Err,
			}
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Printf("errors.E: bad call from %s:%d: %v", file, line, args)
			return Errorf("unknown type %T, value %v in error call", arg, arg)
		}
	}
	prev, ok := e.Err.(*Error)
	if !ok {
		return e
	}

	// The previous error was also one of ours. Suppress duplication so
	// the message won't contain the same kind or path twice.
	if prev.Path == e.Path {
		prev.Path = ""
	}
	if prev.Kind == e.Kind {
		prev.Kind = Other
	}
	// If this error has Kind unset or Other, pull up the inner one.
	if e.Kind == Other {
		e.Kind = prev.Kind
		prev.Kind = Other
	}
	return e
}

// pad appends str to the buffer if the buffer already has some data.
func pad(b *bytes.Buffer, str string) {
	if b.Len() == 0 {
		return
	}
	b.WriteString(str)
}

func (e *Error) Error() string {
	b := new(bytes.Buffer)
	if e.Path != "" {
		b.WriteString(string(e.Path))
	}
	if e.Op != "" {
		pad(b, ": ")
		b.WriteString(string(e.Op))
	}
	if e.Kind != 0 {
		pad(b, ": ")
		b.WriteString(e.Kind.String())
	}
	if e.Err != nil {
		if prevErr, ok := e.Err.(*Error); ok {
			if *prevErr != zeroErr {
				pad(b, Separator)
				b.WriteString(e.Err.Error())
			}
		} else {
			pad(b, ": ")
			b.WriteString(e.Err.Error())
		}
	}
	if b.Len() == 0 {
		return "no error"
	}
	return b.String()
}

// Unwrap allows errors.Is/errors.As from the standard library to see
// through an *Error to its cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// GetKind returns the Kind of err if it is an *Error, or Other if it
// is nil or of an unrelated type.
func GetKind(err error) Kind {
	e, ok := err.(*Error)
	if !ok || e == nil {
		return Other
	}
	return e.Kind
}

// Str returns an error that formats as the given text. It is intended
// to be used as the error-typed argument to the E function.
func Str(text string) error {
	return &errorString{text}
}

// errorString is a trivial implementation of error.
type errorString struct {
	s string
}

func (e *errorString) Error() string {
	return e.s
}

// Errorf is equivalent to fmt.Errorf, but returns a type that may be
// passed as the error-typed argument to E without double-wrapping.
func Errorf(format string, args ...interface{}) error {
	return &errorString{fmt.Sprintf(format, args...)}
}
