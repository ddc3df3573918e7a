/*
snapshot.go - Point-in-time record values for diffing

PURPOSE:
  A Snapshot is the full value of a client record at one moment, stripped
  of lock/edit metadata. The session freezes one at load; every save
  diffs the frozen snapshot against the live record, then the live values
  become the new frozen baseline.

  Snapshots are plain stringified values. Lock state, edit gestures and
  audit history are deliberately absent: they are bookkeeping, not
  content, and must never show up as "changes".
*/
package ledger

// RowValues is one row's stringified fields. Blank fields are omitted so
// a row present on one side only diffs cleanly against an absent row.
type RowValues map[string]string

type Snapshot struct {
	Scalars  map[string]string
	Payments []RowValues
	Workers  []RowValues
}

// Snapshot captures the record's current values.
func (r *ClientRecord) Snapshot() Snapshot {
	snap := Snapshot{Scalars: make(map[string]string, len(r.Scalars))}
	for k, v := range r.Scalars {
		if v != "" {
			snap.Scalars[k] = v
		}
	}
	for _, row := range r.Payments {
		snap.Payments = append(snap.Payments, rowValues(row.Field, PaymentFields, row.Extra))
	}
	for _, row := range r.Workers {
		snap.Workers = append(snap.Workers, rowValues(row.Field, WorkerFields, row.Extra))
	}
	return snap
}

func rowValues(field func(string) string, fields []string, extra map[string]string) RowValues {
	values := make(RowValues, len(fields))
	for _, f := range fields {
		if v := field(f); v != "" {
			values[f] = v
		}
	}
	for k, v := range extra {
		if _, taken := values[k]; !taken && v != "" {
			values[k] = v
		}
	}
	return values
}
