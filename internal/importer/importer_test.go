package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alfredjeanlab/flightpath/internal/model"
	"github.com/alfredjeanlab/flightpath/internal/store"
)

const openFlightsSample = `1229,"Adolfo Suárez Madrid–Barajas Airport","Madrid","Spain","MAD","LEMD",40.471926,-3.56264,1998,1,"E","Europe/Madrid","airport","OurAirports"
1218,"Barcelona International Airport","Barcelona","Spain","BCN","LEBL",41.2971,2.07846,12,1,"E","Europe/Madrid","airport","OurAirports"
9999,"Broken","Nowhere","Atlantis",\N,\N,123.0,0,0,0,"U",\N,"airport","User"
abc,"Bad id","X","Y",\N,\N,1,1,0,0,"U",\N,"airport","User"
`

func TestParse_OpenFlights(t *testing.T) {
	res, err := Parse(strings.NewReader(openFlightsSample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Airports) != 2 {
		t.Fatalf("expected 2 airports, got %d", len(res.Airports))
	}
	mad := res.Airports[0]
	if mad.ID != 1229 || mad.City != "Madrid" || mad.Country != "Spain" {
		t.Errorf("unexpected airport %+v", mad)
	}
	if mad.Lat != 40.471926 || mad.Lon != -3.56264 {
		t.Errorf("unexpected coordinates %v,%v", mad.Lat, mad.Lon)
	}
	if mad.Concurrency != model.ConcurrencyLow {
		t.Errorf("expected default concurrency, got %d", mad.Concurrency)
	}

	if len(res.Skipped) != 2 {
		t.Fatalf("expected 2 skipped rows, got %d", len(res.Skipped))
	}
	if res.Skipped[0].Line != 3 || res.Skipped[1].Line != 4 {
		t.Errorf("unexpected skipped lines %d, %d", res.Skipped[0].Line, res.Skipped[1].Line)
	}
	var ve *model.ValidationError
	if !errors.As(res.Skipped[0], &ve) {
		t.Errorf("expected a validation error for line 3, got %v", res.Skipped[0])
	}
}

func TestParse_SkippedLineAfterMultilineField(t *testing.T) {
	in := "id,name,lat,lon\n" +
		"1,\"Madrid\nBarajas\",40.47,-3.56\n" +
		"2,Broken,123,0\n"
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Airports) != 1 || len(res.Skipped) != 1 {
		t.Fatalf("expected 1 airport and 1 skipped row, got %d and %d", len(res.Airports), len(res.Skipped))
	}
	if got := res.Skipped[0].Line; got != 4 {
		t.Errorf("expected skipped row on line 4, got %d", got)
	}
}

func TestParse_Header(t *testing.T) {
	in := "Latitude,Longitude,Name,ID,Country\n38.7813,-9.1359,Lisboa,5,Portugal\n"
	res, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Airports) != 1 || len(res.Skipped) != 0 {
		t.Fatalf("expected 1 airport, got %d (skipped %v)", len(res.Airports), res.Skipped)
	}
	a := res.Airports[0]
	if a.ID != 5 || a.Name != "Lisboa" || a.Country != "Portugal" || a.City != "" || a.Lon != -9.1359 {
		t.Errorf("unexpected airport %+v", a)
	}
}

func TestParse_HeaderMissingColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("id,name,lat\n1,A,0\n"))
	if err == nil || !strings.Contains(err.Error(), `"lon"`) {
		t.Fatalf("expected missing lon column error, got %v", err)
	}
}

func TestParse_Empty(t *testing.T) {
	res, err := Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Airports) != 0 {
		t.Fatalf("expected no airports, got %d", len(res.Airports))
	}
}

// upsertStore records upserts; other store methods are not used.
type upsertStore struct {
	store.Store
	upserted []int64
	failID   int64
	commits  int
}

func (s *upsertStore) UpsertAirport(_ context.Context, a *model.Airport) error {
	if a.ID == s.failID {
		return errors.New("constraint violation")
	}
	s.upserted = append(s.upserted, a.ID)
	return nil
}

func (s *upsertStore) RunInTransaction(_ context.Context, fn func(tx store.Store) error) error {
	before := len(s.upserted)
	if err := fn(s); err != nil {
		s.upserted = s.upserted[:before]
		return err
	}
	s.commits++
	return nil
}

func TestLoad(t *testing.T) {
	s := &upsertStore{}
	airports := []*model.Airport{{ID: 1}, {ID: 2}}
	if err := Load(context.Background(), s, airports); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.upserted) != 2 || s.commits != 1 {
		t.Errorf("expected 2 upserts in one commit, got %v / %d", s.upserted, s.commits)
	}
}

func TestLoad_RollsBack(t *testing.T) {
	s := &upsertStore{failID: 2}
	err := Load(context.Background(), s, []*model.Airport{{ID: 1}, {ID: 2}, {ID: 3}})
	if err == nil || !strings.Contains(err.Error(), "upsert airport 2") {
		t.Fatalf("expected wrapped upsert error, got %v", err)
	}
	if len(s.upserted) != 0 || s.commits != 0 {
		t.Errorf("expected rollback, got %v / %d", s.upserted, s.commits)
	}
}
