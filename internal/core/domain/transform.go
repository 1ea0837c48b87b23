package domain

// PromptTransform rewrites user content before it is sent upstream.
// Transforms are pure and compose in construction order: t.Then(u)
// applies t first and u to its output. A nil PromptTransform is the identity.
type PromptTransform func(string) string

// Identity returns a transform that leaves content unchanged.
func Identity() PromptTransform {
	return func(s string) string { return s }
}

// Prefix returns a transform that inserts p before the content.
func Prefix(p string) PromptTransform {
	return func(s string) string { return p + s }
}

// Suffix returns a transform that appends x after the content.
func Suffix(x string) PromptTransform {
	return func(s string) string { return s + x }
}

// Func lifts an arbitrary rewrite into a transform.
func Func(f func(string) string) PromptTransform {
	if f == nil {
		return Identity()
	}
	return PromptTransform(f)
}

// Chain composes transforms left to right. Nil entries are skipped.
func Chain(ts ...PromptTransform) PromptTransform {
	var out PromptTransform
	for _, t := range ts {
		out = out.Then(t)
	}
	return out
}

// Apply runs the transform on s.
func (t PromptTransform) Apply(s string) string {
	if t == nil {
		return s
	}
	return t(s)
}

// Then returns a transform equivalent to "apply t, then apply next".
func (t PromptTransform) Then(next PromptTransform) PromptTransform {
	switch {
	case next == nil:
		return t
	case t == nil:
		return next
	}
	return func(s string) string { return next(t(s)) }
}

// WithPrefix returns t followed by inserting p at the front.
func (t PromptTransform) WithPrefix(p string) PromptTransform {
	return t.Then(Prefix(p))
}

// WithSuffix returns t followed by appending x.
func (t PromptTransform) WithSuffix(x string) PromptTransform {
	return t.Then(Suffix(x))
}
