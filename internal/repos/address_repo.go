package repos

import (
	"context"

	"nittanymarket/internal/domain"
)

type AddressRepo struct{ q Querier }

func NewAddressRepo(q Querier) *AddressRepo { return &AddressRepo{q: q} }

// EnsureZipcode records city/state for a zipcode the first time it is seen.
// Existing rows are left as they are.
func (r *AddressRepo) EnsureZipcode(ctx context.Context, zip, city, state string) error {
	_, err := exec(ctx, r.q, `
		INSERT INTO zipcodes(zipcode,city,state) VALUES(?,?,?)
		ON CONFLICT(zipcode) DO NOTHING
	`, zip, city, state)
	return err
}

func (r *AddressRepo) ZipcodeKnown(ctx context.Context, zip string) (bool, error) {
	var n int
	if err := get(ctx, r.q, &n, `SELECT COUNT(*) FROM zipcodes WHERE zipcode=?`, zip); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *AddressRepo) Create(ctx context.Context, a domain.Address) (int64, error) {
	var id int64
	err := get(ctx, r.q, &id, `
		INSERT INTO addresses(zipcode,street_num,street_name) VALUES(?,?,?)
		RETURNING id
	`, a.Zipcode, a.StreetNum, a.StreetName)
	return id, err
}

func (r *AddressRepo) Update(ctx context.Context, a domain.Address) error {
	_, err := exec(ctx, r.q, `UPDATE addresses SET zipcode=?, street_num=?, street_name=? WHERE id=?`,
		a.Zipcode, a.StreetNum, a.StreetName, a.ID)
	return err
}

func (r *AddressRepo) Get(ctx context.Context, id int64) (domain.Address, error) {
	var a domain.Address
	err := get(ctx, r.q, &a, `
		SELECT a.id, a.zipcode, a.street_num, a.street_name, z.city, z.state
		FROM addresses a
		JOIN zipcodes z ON z.zipcode = a.zipcode
		WHERE a.id = ?
	`, id)
	return a, err
}
