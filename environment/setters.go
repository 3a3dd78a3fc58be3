package environment

// SetName returns an UpdateSetter that sets the environment's name.
func SetName(name string) UpdateSetter {
	return func(e *Environment) error {
		if name == "" {
			return ErrInvalidEnvironmentName
		}
		e.Name = name
		return nil
	}
}

// SetBaseURL returns an UpdateSetter that sets the environment's base URL.
func SetBaseURL(baseURL string) UpdateSetter {
	return func(e *Environment) error {
		e.BaseURL = baseURL
		return nil
	}
}

// SetDescription returns an UpdateSetter that sets the description.
func SetDescription(description string) UpdateSetter {
	return func(e *Environment) error {
		e.Description = description
		return nil
	}
}
