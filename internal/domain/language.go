package domain

// Language maps a logical language name to the sandbox's numeric language id.
// The id is a pin against the sandbox runtime catalogue and changes when the
// sandbox upgrades its runtimes.
type Language struct {
	Name        string `json:"name" toml:"name"`
	SandboxID   int    `json:"sandbox_id" toml:"sandbox_id"`
	DisplayName string `json:"display_name" toml:"display_name"`
}

// LanguageResolver resolves a submitted language name to its sandbox mapping
type LanguageResolver interface {
	Resolve(name string) (Language, bool)
	List() []Language
}
