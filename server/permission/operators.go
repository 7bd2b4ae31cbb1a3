package permission

import (
	"errors"
)

// ErrOperatorsUnavailable is returned when no operator list is configured.
var ErrOperatorsUnavailable = errors.New("operator list is not configured")

// Operators is the list of players holding every permission. Entries are
// persisted in a TOML file.
type Operators struct {
	list *nameList
}

// LoadOperators loads the operator list stored at path, creating an empty file
// if none exists yet.
func LoadOperators(path string) (*Operators, error) {
	l, err := loadNameList("operators", path)
	if err != nil {
		return nil, err
	}
	return &Operators{list: l}, nil
}

// IsOperator reports whether name is on the list.
func (o *Operators) IsOperator(name string) bool {
	if o == nil {
		return false
	}
	return o.list.contains(name)
}

// Add puts name on the list. The returned bool indicates if it was newly added.
func (o *Operators) Add(name string) (bool, error) {
	if o == nil {
		return false, ErrOperatorsUnavailable
	}
	return o.list.add(name)
}

// Remove takes name off the list. The returned bool indicates if it was
// present.
func (o *Operators) Remove(name string) (bool, error) {
	if o == nil {
		return false, ErrOperatorsUnavailable
	}
	return o.list.remove(name)
}

// Operators returns the names on the list, sorted case-insensitively.
func (o *Operators) Operators() []string {
	if o == nil {
		return nil
	}
	return o.list.names()
}

// Reload re-reads the file from disk.
func (o *Operators) Reload() error {
	if o == nil {
		return ErrOperatorsUnavailable
	}
	return o.list.reload()
}
