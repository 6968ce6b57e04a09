//go:build !darwin

package harness

import (
	"github.com/joeycumines/go-mainthread"
)

// defaultLoop returns the loop the harness drives while cases run: none,
// as package-level dispatch executes inline on this platform.
func defaultLoop() *mainthread.Loop {
	return nil
}
