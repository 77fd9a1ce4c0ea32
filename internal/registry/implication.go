package registry

import (
	"fmt"

	"github.com/lmburns/wutag/internal/ids"
	"github.com/lmburns/wutag/internal/registry/txn"
)

func scanImplication(row interface {
	Scan(dest ...any) error
}) (Implication, error) {
	var im Implication
	if err := row.Scan(&im.ImplyingTag, &im.ImplyingValue, &im.ImpliedTag, &im.ImpliedValue); err != nil {
		return Implication{}, err
	}
	return im, nil
}

const implicationColumns = `implying_tag_id, implying_value_id, implied_tag_id, implied_value_id`

// AllImplications returns every implication in the registry.
func (r *Registry) AllImplications() ([]Implication, error) {
	var out []Implication
	err := r.ReadOnly(func(t *txn.Txn) error {
		rows, err := t.Query(`SELECT ` + implicationColumns + ` FROM impl`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			im, err := scanImplication(rows)
			if err != nil {
				return err
			}
			out = append(out, im)
		}
		return rows.Err()
	})
	return out, err
}

// implicationsDirectlyImplyingTx returns every implication whose implying
// side matches one of the given (tag, value) pairs: an exact value match,
// or an "any value" (value=0) implying edge on that tag.
func implicationsDirectlyImplyingTx(t *txn.Txn, pairs []TagValue) ([]Implication, error) {
	var out []Implication
	for _, p := range pairs {
		rows, err := t.Query(
			`SELECT `+implicationColumns+` FROM impl
			 WHERE implying_tag_id = ? AND (implying_value_id = 0 OR implying_value_id = ?)`,
			p.Tag, p.Value,
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			im, err := scanImplication(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, im)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// implicationsDirectlyImpliedByTx returns every implication whose implied
// side matches one of the given (tag, value) pairs — the inverse direction
// of implicationsDirectlyImplyingTx, used to find what implies a target.
func implicationsDirectlyImpliedByTx(t *txn.Txn, pairs []TagValue) ([]Implication, error) {
	var out []Implication
	for _, p := range pairs {
		rows, err := t.Query(
			`SELECT `+implicationColumns+` FROM impl
			 WHERE implied_tag_id = ? AND (implied_value_id = 0 OR implied_value_id = ?)`,
			p.Tag, p.Value,
		)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			im, err := scanImplication(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, im)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return out, nil
}

// ImplicationsFor returns every implication reachable by following implying
// edges forward from tvc — i.e. every implication that contributes to the
// closure of tvc. Unlike the original implementation (which had an
// inverted polarity bug in the symmetric implications_implying), both
// direction-query helpers here only append an implication not already
// collected.
func (r *Registry) ImplicationsFor(tvc []TagValue) ([]Implication, error) {
	var out []Implication
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		out, err = implicationsForTx(t, tvc)
		return err
	})
	return out, err
}

func implicationsForTx(t *txn.Txn, tvc []TagValue) ([]Implication, error) {
	var result []Implication
	frontier := append([]TagValue(nil), tvc...)

	for len(frontier) > 0 {
		found, err := implicationsDirectlyImplyingTx(t, frontier)
		if err != nil {
			return nil, err
		}
		var next []TagValue
		for _, im := range found {
			if !containsImplication(result, im) {
				result = append(result, im)
				next = append(next, TagValue{Tag: im.ImpliedTag, Value: im.ImpliedValue})
			}
		}
		frontier = next
	}
	return result, nil
}

// ImplicationsImplying returns every implication reachable by following
// implied edges backward from tvc: the set of implications that (directly
// or transitively) imply one of the given pairs.
func (r *Registry) ImplicationsImplying(tvc []TagValue) ([]Implication, error) {
	var out []Implication
	err := r.ReadOnly(func(t *txn.Txn) error {
		var err error
		out, err = implicationsImplyingTx(t, tvc)
		return err
	})
	return out, err
}

func implicationsImplyingTx(t *txn.Txn, tvc []TagValue) ([]Implication, error) {
	var result []Implication
	frontier := append([]TagValue(nil), tvc...)

	for len(frontier) > 0 {
		found, err := implicationsDirectlyImpliedByTx(t, frontier)
		if err != nil {
			return nil, err
		}
		var next []TagValue
		for _, im := range found {
			if !containsImplication(result, im) {
				result = append(result, im)
				next = append(next, TagValue{Tag: im.ImplyingTag, Value: im.ImplyingValue})
			}
		}
		frontier = next
	}
	return result, nil
}

func containsImplication(list []Implication, im Implication) bool {
	for _, x := range list {
		if x == im {
			return true
		}
	}
	return false
}

// closureTx computes the transitive closure of seed under the implication
// graph, per §4.4: starting from seed, repeatedly follow implying edges
// until no new (tag, value) pairs are discovered.
func closureTx(t *txn.Txn, seed []TagValue) ([]TagValue, error) {
	result := append([]TagValue(nil), seed...)
	frontier := append([]TagValue(nil), seed...)

	for len(frontier) > 0 {
		implied, err := implicationsDirectlyImplyingTx(t, frontier)
		if err != nil {
			return nil, err
		}
		var next []TagValue
		for _, im := range implied {
			tv := TagValue{Tag: im.ImpliedTag, Value: im.ImpliedValue}
			if !containsTagValue(result, tv) {
				result = append(result, tv)
				next = append(next, tv)
			}
		}
		frontier = next
	}
	return result, nil
}

func containsTagValue(list []TagValue, tv TagValue) bool {
	for _, x := range list {
		if x == tv {
			return true
		}
	}
	return false
}

// InsertImplication adds the directed edge pair -> implied, rejecting it if
// doing so would create a cycle: this is precisely the case where pair is
// already in the closure of {implied}.
func (r *Registry) InsertImplication(pair, implied TagValue) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		if _, err := tagByIDTx(t, pair.Tag); err != nil {
			return err
		}
		if _, err := tagByIDTx(t, implied.Tag); err != nil {
			return err
		}
		if !pair.Value.IsNull() {
			if _, err := valueByIDTx(t, pair.Value); err != nil {
				return err
			}
		}
		if !implied.Value.IsNull() {
			if _, err := valueByIDTx(t, implied.Value); err != nil {
				return err
			}
		}

		// Acyclicity check: reject if pair is already in the closure of
		// {implied}, i.e. if following implying edges forward from implied
		// would already reach pair — adding pair -> implied would then
		// close a cycle. The closure includes implied itself, so an edge
		// from a pair to itself is rejected as well.
		if implied.Tag == pair.Tag && (pair.Value.IsNull() || implied.Value == pair.Value) {
			return fmt.Errorf("%w: %v would imply itself", ErrImplicationWouldLoop, pair)
		}
		reachable, err := implicationsForTx(t, []TagValue{implied})
		if err != nil {
			return err
		}
		for _, im := range reachable {
			if im.ImpliedTag == pair.Tag && (pair.Value.IsNull() || im.ImpliedValue == pair.Value) {
				return fmt.Errorf("%w: %v would reach %v through the existing graph", ErrImplicationWouldLoop, implied, pair)
			}
		}

		_, err = t.Exec(
			`INSERT OR IGNORE INTO impl (implying_tag_id, implying_value_id, implied_tag_id, implied_value_id)
			 VALUES (?, ?, ?, ?)`,
			pair.Tag, pair.Value, implied.Tag, implied.Value,
		)
		return err
	})
}

// DeleteImplication removes a single implication edge.
func (r *Registry) DeleteImplication(pair, implied TagValue) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		_, err := t.Exec(
			`DELETE FROM impl WHERE implying_tag_id = ? AND implying_value_id = ? AND implied_tag_id = ? AND implied_value_id = ?`,
			pair.Tag, pair.Value, implied.Tag, implied.Value,
		)
		return err
	})
}

// DeleteImplicationsByTag removes every implication edge referencing a tag,
// on either side — used when the tag itself is deleted.
func (r *Registry) DeleteImplicationsByTag(id ids.TagID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		_, err := t.Exec(`DELETE FROM impl WHERE implying_tag_id = ? OR implied_tag_id = ?`, id, id)
		return err
	})
}

// DeleteImplicationsByValue removes every implication edge referencing a
// value, on either side — used when the value itself is deleted.
func (r *Registry) DeleteImplicationsByValue(id ids.ValueID) error {
	return r.ReadWrite(func(t *txn.Txn) error {
		_, err := t.Exec(`DELETE FROM impl WHERE implying_value_id = ? OR implied_value_id = ?`, id, id)
		return err
	})
}
