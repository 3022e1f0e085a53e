package result

// CompilerDescriptor is the metadata the service publishes for one compiler.
type CompilerDescriptor struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Lang            string `json:"lang"`
	CompilerType    string `json:"compilerType"`
	Semver          string `json:"semver"`
	SupportsExecute bool   `json:"supportsExecute"`
	Group           string `json:"group"`
}
