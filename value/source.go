package value

// SourceKind identifies where a Value came from.
type SourceKind uint8

const (
	SourceUnknown SourceKind = iota
	SourceFile
	SourceEnvironmentVariable
	SourceProvider
	SourceProgrammatic
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceEnvironmentVariable:
		return "env"
	case SourceProvider:
		return "provider"
	case SourceProgrammatic:
		return "programmatic"
	}
	return "unknown"
}

// Source tags the origin of a stored value. Detail holds the file
// path, environment variable name, or provider name, depending on
// Kind; it is empty for Programmatic and Unknown.
type Source struct {
	Kind   SourceKind
	Detail string
}

// NewFileSource returns a Source identifying a file at path.
func NewFileSource(path string) Source { return Source{Kind: SourceFile, Detail: path} }

// NewEnvSource returns a Source identifying an environment variable.
func NewEnvSource(name string) Source { return Source{Kind: SourceEnvironmentVariable, Detail: name} }

// NewProviderSource returns a Source identifying a value provider.
func NewProviderSource(name string) Source { return Source{Kind: SourceProvider, Detail: name} }

// Programmatic is the Source for values set directly via Store.Set
// without going through ingestion.
var Programmatic = Source{Kind: SourceProgrammatic}

// UnknownSource is returned for keys with no recorded origin.
var UnknownSource = Source{Kind: SourceUnknown}

// String renders the source for logging, e.g. "file(/etc/app/base.yaml)".
func (s Source) String() string {
	if s.Detail == "" {
		return s.Kind.String()
	}
	return s.Kind.String() + "(" + s.Detail + ")"
}
