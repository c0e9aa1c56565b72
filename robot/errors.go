package robot

import "fmt"

// NotConstructedError is returned when a subsystem is accessed before BringUp.
type NotConstructedError struct {
	Name string
}

func (e *NotConstructedError) Error() string {
	return fmt.Sprintf("%s accessed before the robot was brought up", e.Name)
}

// NewNotConstructedError returns an error for accessing the named subsystem too early.
func NewNotConstructedError(name string) error {
	return &NotConstructedError{Name: name}
}

// AlreadyConstructedError is returned when BringUp is called a second time.
type AlreadyConstructedError struct{}

func (e *AlreadyConstructedError) Error() string {
	return "robot is already brought up"
}
