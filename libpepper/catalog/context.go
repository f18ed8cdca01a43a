package catalog

import "sync"

// Context tracks open catalogs so a process can close them all and wait until they are flushed.
type Context struct {
	mu        sync.Mutex
	openCount sync.WaitGroup
	open      map[*Catalog]struct{}
	closeOnce sync.Once
	closing   chan struct{}
	closed    chan struct{}
}

func NewContext() *Context {
	ctx := &Context{
		open:    make(map[*Catalog]struct{}),
		closing: make(chan struct{}),
		closed:  make(chan struct{}),
	}
	ctx.openCount.Add(1)
	go func() {
		<-ctx.closing
		ctx.openCount.Done()
		ctx.openCount.Wait()
		close(ctx.closed)
	}()
	return ctx
}

func (ctx *Context) attach(cat *Catalog) {
	ctx.openCount.Add(1)
	ctx.mu.Lock()
	ctx.open[cat] = struct{}{}
	ctx.mu.Unlock()
}

func (ctx *Context) detach(cat *Catalog) {
	ctx.mu.Lock()
	if _, exists := ctx.open[cat]; exists {
		delete(ctx.open, cat)
		ctx.openCount.Done()
	}
	ctx.mu.Unlock()
}

// Closing is signalled once Close is called.
func (ctx *Context) Closing() <-chan struct{} {
	return ctx.closing
}

// Done is signalled once Close was called and every attached catalog is closed.
func (ctx *Context) Done() <-chan struct{} {
	return ctx.closed
}

// Close closes every open catalog; wait on Done for completion.
func (ctx *Context) Close() {
	ctx.closeOnce.Do(func() {
		close(ctx.closing)
		ctx.mu.Lock()
		for cat := range ctx.open {
			go cat.Close()
		}
		ctx.mu.Unlock()
	})
}
