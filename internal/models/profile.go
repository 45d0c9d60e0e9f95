package models

// Profile describes how raw lines are cleaned and which cleaned lines are
// kept. It is loaded from profiles.yaml.
type Profile struct {
	Name               string   `json:"name" yaml:"name"`
	Description        string   `json:"description,omitempty" yaml:"description,omitempty"`
	Strip              []string `json:"strip" yaml:"strip"`
	Pattern            string   `json:"pattern" yaml:"pattern"`
	DefaultContactName string   `json:"defaultContactName,omitempty" yaml:"default_contact_name,omitempty"`
}

// ProfileSet is the top-level structure of a profiles file.
type ProfileSet struct {
	Profiles []Profile `yaml:"profiles"`
}
