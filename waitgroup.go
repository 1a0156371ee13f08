package couv

// WaitGroup waits for a collection of tasklets to finish.
type WaitGroup struct {
	noCopy noCopy
	v      int32
	sema   sema
}

// Add adds delta to the counter. When the counter drops to zero every
// waiting tasklet is readied. A negative counter panics.
func (wg *WaitGroup) Add(delta int) {
	wg.v += int32(delta)

	if wg.v < 0 {
		panic("couv: negative WaitGroup counter")
	}

	if wg.v > 0 {
		return
	}

	for wg.sema.waiters() > 0 {
		wg.sema.release()
	}
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait parks t until the counter is zero.
func (wg *WaitGroup) Wait(t *Tasklet) {
	if wg.v == 0 {
		return
	}

	wg.sema.acquire(t)
}
