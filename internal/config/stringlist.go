package config

// StringList handles YAML fields that can be a single string or a list of strings.
// TOML files always use the list form.
type StringList []string

func (s *StringList) UnmarshalYAML(unmarshal func(any) error) error {
	// Try single string first
	var single string
	if err := unmarshal(&single); err == nil {
		*s = []string{single}
		return nil
	}

	var list []string
	if err := unmarshal(&list); err != nil {
		return err
	}
	*s = list
	return nil
}

// Contains reports whether v is in the list.
func (s StringList) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
