package system

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	closes = []func(){}
	mu     = sync.Mutex{}
	once   sync.Once
)

// RegisterClose 注册退出时执行的清理函数，按注册的逆序执行
func RegisterClose(f func()) {
	mu.Lock()
	defer mu.Unlock()

	closes = append(closes, f)
}

// Shutdown 执行全部清理函数，多次调用只生效一次
func Shutdown() {
	once.Do(func() {
		mu.Lock()
		fs := make([]func(), len(closes))
		copy(fs, closes)
		mu.Unlock()

		for i := len(fs) - 1; i >= 0; i-- {
			fs[i]()
		}
	})
}

func init() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-ch
		Shutdown()
		os.Exit(0)
	}()
}
