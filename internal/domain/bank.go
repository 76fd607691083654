package domain

// Bank is a named financial institution.
type Bank struct {
	Code int64
	Name string
}

// Branch is a physical location of a bank.
type Branch struct {
	Code          int64
	Address       string
	BankCode      int64
	BankName      string
	ContactPerson string
	PhoneNo       string
	FaxNo         string
}
