//go:build darwin

package harness

import (
	"github.com/joeycumines/go-mainthread"
)

// defaultLoop returns the loop the harness drives while cases run: the
// process-global main loop, so case bodies can use package-level
// dispatch.
func defaultLoop() *mainthread.Loop {
	return mainthread.MainLoop()
}
