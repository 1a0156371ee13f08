package couv

// noCopy may be embedded in structs that must not be copied after first
// use. go vet's copylocks check recognizes it through the Lock and Unlock
// methods.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
