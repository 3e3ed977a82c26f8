package jsonfile

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }
