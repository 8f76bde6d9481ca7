package multirate

// Builder can help building multi-rate components.
type Builder struct {
	svc    ValueService
	policy PersistencePolicy
}

// MakeBuilder creates a builder with the default persistence policy.
func MakeBuilder() Builder {
	return Builder{
		policy: DefaultPolicy(),
	}
}

// WithService sets the value service the component talks to.
func (b Builder) WithService(svc ValueService) Builder {
	b.svc = svc
	return b
}

// WithPersistencePolicy overrides the persistence policy.
func (b Builder) WithPersistencePolicy(p PersistencePolicy) Builder {
	b.policy = p
	return b
}

// Build creates the component in the Uninitialized phase.
func (b Builder) Build(name string) *Comp {
	if b.svc == nil {
		panic("component " + name + " built without a value service")
	}

	c := new(Comp)
	c.name = name
	c.svc = b.svc
	c.policy = b.policy

	return c
}
