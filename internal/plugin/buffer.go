package plugin

import "errors"

// ErrUnknownBuffer is returned when freeing a buffer the plugin does not own,
// including one that was already freed.
var ErrUnknownBuffer = errors.New("buffer not allocated by plugin or already freed")

// Buffer is a NUL-terminated info text whose ownership passes to the client
// until it is returned through FreeMemory.
type Buffer struct {
	data []byte
}

func newBuffer(text string) *Buffer {
	data := make([]byte, len(text)+1)
	copy(data, text)

	return &Buffer{data: data}
}

// Bytes returns the buffer including its terminating NUL. It is nil once freed.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len is the allocated size: the text length plus the terminator.
func (b *Buffer) Len() int {
	return len(b.data)
}

// String returns the text without the terminator.
func (b *Buffer) String() string {
	if len(b.data) == 0 {
		return ""
	}

	return string(b.data[:len(b.data)-1])
}

func (b *Buffer) release() {
	b.data = nil
}
