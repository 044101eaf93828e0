package dom

import (
	"github.com/pkg/errors"
)

// Clone deep-copies e. The copy has no parent; shadow links are carried
// over by structural position and each pair is checked to render the same.
func Clone(e Element) (Element, error) {
	c := e.clone(true)
	if err := relink(e, c, true); err != nil {
		return nil, err
	}
	return c, nil
}

// CloneWithoutChildren copies e and its typed children but leaves every
// child list empty.
func CloneWithoutChildren(e Element) (Element, error) {
	c := e.clone(false)
	if err := relink(e, c, false); err != nil {
		return nil, err
	}
	return c, nil
}

// relink copies the shadow links from original to the structurally matching
// elements of dup.
func relink(original, dup Element, deep bool) error {
	return pairWalk(original, dup, deep, func(a, b Element) error {
		if deep && a.String() != b.String() {
			return errors.Errorf("clone of %s %q does not match the original:\n%s\n---\n%s",
				a.Kind(), NameOf(a), a.String(), b.String())
		}
		b.Node().Unmodified = a.Node().Unmodified
		return nil
	})
}

// pairWalk visits two trees in lockstep, failing on any divergence
func pairWalk(a, b Element, withChildren bool, fn func(a, b Element) error) error {
	if a.Kind() != b.Kind() {
		return errors.Errorf("structure mismatch: %s vs %s", a.Kind(), b.Kind())
	}
	if err := fn(a, b); err != nil {
		return err
	}

	ab, bb := a.Node(), b.Node()
	if len(ab.PreComments) != len(bb.PreComments) {
		return errors.Errorf("structure mismatch in pre-comments of %s %q", a.Kind(), NameOf(a))
	}
	for i := range ab.PreComments {
		if err := pairWalk(ab.PreComments[i], bb.PreComments[i], true, fn); err != nil {
			return err
		}
	}

	ao, bo := a.ownedElements(), b.ownedElements()
	if len(ao) != len(bo) {
		return errors.Errorf("structure mismatch in %s %q", a.Kind(), NameOf(a))
	}
	for i := range ao {
		if err := pairWalk(ao[i], bo[i], true, fn); err != nil {
			return err
		}
	}

	if withChildren {
		al, bl := a.childLists(), b.childLists()
		for i := range al {
			if len(*al[i]) != len(*bl[i]) {
				return errors.Errorf("structure mismatch in children of %s %q", a.Kind(), NameOf(a))
			}
			for j := range *al[i] {
				if err := pairWalk((*al[i])[j], (*bl[i])[j], true, fn); err != nil {
					return err
				}
			}
		}
	}

	if (ab.AttachedComment == nil) != (bb.AttachedComment == nil) {
		return errors.Errorf("structure mismatch in attached comment of %s %q", a.Kind(), NameOf(a))
	}
	if ab.AttachedComment != nil {
		return pairWalk(ab.AttachedComment, bb.AttachedComment, true, fn)
	}
	return nil
}

// SaveUnmodifiedClones snapshots the whole tree under root and points every
// element's Unmodified link at its counterpart in the snapshot.
func SaveUnmodifiedClones(root Element) error {
	shadow := root.clone(true)
	return pairWalk(root, shadow, true, func(live, saved Element) error {
		live.Node().Unmodified = saved
		return nil
	})
}

// Original returns the pre-modification counterpart of e, or e itself when
// no snapshot was taken.
func Original(e Element) Element {
	if u := e.Node().Unmodified; u != nil {
		return u
	}
	return e
}
