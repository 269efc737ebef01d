package model

// Recognized input column names. Any other column passes through untouched.
const (
	ColumnName  = "Customer Name"
	ColumnEmail = "Email"
	ColumnPhone = "Phone"
)

// Derived output column names, appended only when their stage ran.
const (
	ColumnDuplicate = "Potential Duplicate"
	ColumnAnomaly   = "Anomaly Score"
	ColumnValidity  = "Valid Entry"
	ColumnCompany   = "Company"
)

// Validity is the label derived from the anomaly score.
type Validity string

const (
	ValidityValid    Validity = "Valid"
	ValidityInvalid  Validity = "Invalid"
	ValidityUnscored Validity = "Unscored"
)

// Record is one row of the batch. The recognized fields hold raw values
// after load and canonical values after the normalize stage. Derived
// annotations are write-once and stay nil/empty until their stage runs.
type Record struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`

	// Extra holds unrecognized input columns, passed through untouched.
	Extra map[string]string `json:"extra,omitempty"`

	DuplicateMatch *string  `json:"duplicate_match,omitempty"`
	AnomalyScore   *float64 `json:"anomaly_score,omitempty"`
	Validity       Validity `json:"validity,omitempty"`
	Company        string   `json:"company,omitempty"`
}

// Batch is an ordered collection of records plus the input schema.
// Presence flags record which recognized columns existed in the input;
// a stage whose column is absent is skipped for the whole batch.
type Batch struct {
	Columns []string `json:"columns"` // original column order
	Records []Record `json:"records"`

	HasName  bool `json:"has_name"`
	HasEmail bool `json:"has_email"`
	HasPhone bool `json:"has_phone"`
}

// Clone returns a deep copy of the batch. Stages never mutate their input;
// each produces a new batch so earlier stage output stays immutable.
func (b *Batch) Clone() *Batch {
	out := &Batch{
		Columns:  append([]string(nil), b.Columns...),
		Records:  make([]Record, len(b.Records)),
		HasName:  b.HasName,
		HasEmail: b.HasEmail,
		HasPhone: b.HasPhone,
	}
	for i, r := range b.Records {
		nr := r
		if r.Extra != nil {
			nr.Extra = make(map[string]string, len(r.Extra))
			for k, v := range r.Extra {
				nr.Extra[k] = v
			}
		}
		if r.DuplicateMatch != nil {
			v := *r.DuplicateMatch
			nr.DuplicateMatch = &v
		}
		if r.AnomalyScore != nil {
			v := *r.AnomalyScore
			nr.AnomalyScore = &v
		}
		out.Records[i] = nr
	}
	return out
}

// Names returns the name column across the batch, in record order.
func (b *Batch) Names() []string {
	names := make([]string, len(b.Records))
	for i, r := range b.Records {
		names[i] = r.Name
	}
	return names
}

// Phones returns the phone column across the batch, in record order.
func (b *Batch) Phones() []string {
	phones := make([]string, len(b.Records))
	for i, r := range b.Records {
		phones[i] = r.Phone
	}
	return phones
}
