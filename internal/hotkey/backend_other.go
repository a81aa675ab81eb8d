//go:build !windows && !linux && !darwin

package hotkey

type unsupportedKeys struct{}

func (unsupportedKeys) register(int, uint32, uint32, func(Message)) error { return ErrUnsupported }
func (unsupportedKeys) unregister(int) error                          { return ErrUnsupported }

func newBackends() (keyBackend, mouseBackend) {
	return unsupportedKeys{}, unsupportedMouse{}
}
