package couv

// Mutex provides mutual exclusion between tasklets. Ownership passes
// directly to the longest waiting tasklet on Unlock.
type Mutex struct {
	noCopy noCopy
	r      *Tasklet
	sema   sema
}

// Lock acquires the mutex for t, parking t while another tasklet holds it.
func (m *Mutex) Lock(t *Tasklet) {
	if m.r == nil {
		m.r = t
		return
	}

	m.sema.acquire(t)
}

// Unlock releases the mutex.
func (m *Mutex) Unlock() {
	if m.r == nil {
		panic("couv: unlock of unlocked mutex")
	}
	if m.sema.waiters() == 0 {
		m.r = nil
		return
	}

	m.r = m.sema.w.Front()
	m.sema.release()
}

// Owner returns the tasklet holding the mutex, or nil.
func (m *Mutex) Owner() *Tasklet {
	return m.r
}

// WaitCount returns the number of tasklets waiting to acquire the mutex.
func (m *Mutex) WaitCount() int {
	return m.sema.waiters()
}
