package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/rentledger/services/rental/domain"
)

const (
	dailyPrice uint64 = 100
	deposit    uint64 = 1000
	rentValue  uint64 = deposit + dailyPrice
)

var (
	owner  = uuid.New()
	renter = uuid.New()
	other  = uuid.New()

	t0 = time.Unix(1_700_000_000, 0).UTC()
)

func listTestItem(t *testing.T, l *Ledger) uint64 {
	t.Helper()
	id, err := l.List("Test Book", dailyPrice, deposit, "QmTESTcid123", owner)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return id
}

func afterDays(days int64) time.Time {
	return t0.Add(time.Duration(days) * 24 * time.Hour)
}

func TestListValidation(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		price   uint64
		dep     uint64
		cid     string
		wantErr error
	}{
		{"empty title", "", dailyPrice, deposit, "cid", domain.ErrInvalidTitle},
		{"zero price", "Book", 0, deposit, "cid", domain.ErrInvalidPrice},
		{"zero deposit", "Book", dailyPrice, 0, "cid", domain.ErrInvalidDeposit},
		{"empty metadata CID", "Book", dailyPrice, deposit, "", domain.ErrInvalidMetadata},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(NewMemoryBank())
			if _, err := l.List(tt.title, tt.price, tt.dep, tt.cid, owner); !errors.Is(err, tt.wantErr) {
				t.Fatalf("List error = %v, want %v", err, tt.wantErr)
			}
			if got := l.TotalItems(); got != 0 {
				t.Fatalf("TotalItems after failed list = %d, want 0", got)
			}
		})
	}
}

func TestListAssignsSequentialIDs(t *testing.T) {
	l := New(NewMemoryBank())
	for want := uint64(1); want <= 3; want++ {
		id, err := l.List("Book", dailyPrice, deposit, "cid", owner)
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if id != want {
			t.Fatalf("id = %d, want %d", id, want)
		}
		if got := l.TotalItems(); got != want {
			t.Fatalf("TotalItems = %d, want %d", got, want)
		}
	}
}

func TestGet(t *testing.T) {
	l := New(NewMemoryBank())
	id := listTestItem(t, l)

	t.Run("returns stored fields", func(t *testing.T) {
		item, err := l.Get(id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if item.Title != "Test Book" || item.Owner != owner || item.MetadataCID != "QmTESTcid123" {
			t.Fatalf("unexpected item %+v", item)
		}
		if !item.IsListed || item.Rented() {
			t.Fatalf("new item should be listed and unrented, got %+v", item)
		}
	})

	t.Run("unknown id fails NotFound", func(t *testing.T) {
		if _, err := l.Get(99); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("Get error = %v, want ErrItemNotFound", err)
		}
	})
}

func TestDelist(t *testing.T) {
	t.Run("owner can delist a listed item", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if err := l.Delist(id, owner); err != nil {
			t.Fatalf("Delist: %v", err)
		}
		item, _ := l.Get(id)
		if item.IsListed {
			t.Fatal("item still listed after delist")
		}
	})

	t.Run("non-owner fails NotOwner", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if err := l.Delist(id, other); !errors.Is(err, domain.ErrNotOwner) {
			t.Fatalf("Delist error = %v, want ErrNotOwner", err)
		}
	})

	t.Run("rented item fails NotListed", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if _, err := l.Rent(id, renter, rentValue, t0); err != nil {
			t.Fatalf("Rent: %v", err)
		}
		if err := l.Delist(id, owner); !errors.Is(err, domain.ErrItemNotListed) {
			t.Fatalf("Delist error = %v, want ErrItemNotListed", err)
		}
	})

	t.Run("double delist fails NotListed", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if err := l.Delist(id, owner); err != nil {
			t.Fatalf("Delist: %v", err)
		}
		if err := l.Delist(id, owner); !errors.Is(err, domain.ErrItemNotListed) {
			t.Fatalf("second Delist error = %v, want ErrItemNotListed", err)
		}
	})

	t.Run("unknown id fails NotFound", func(t *testing.T) {
		l := New(NewMemoryBank())
		if err := l.Delist(99, owner); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("Delist error = %v, want ErrItemNotFound", err)
		}
	})
}

func TestRent(t *testing.T) {
	t.Run("exact payment succeeds and holds escrow", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)

		item, err := l.Rent(id, renter, rentValue, t0)
		if err != nil {
			t.Fatalf("Rent: %v", err)
		}
		if item.IsListed {
			t.Fatal("rented item still listed")
		}
		if item.Renter != renter {
			t.Fatalf("Renter = %v, want %v", item.Renter, renter)
		}
		if !item.RentalStartTime.Equal(t0) {
			t.Fatalf("RentalStartTime = %v, want %v", item.RentalStartTime, t0)
		}
		if got := l.EscrowBalance(); got != rentValue {
			t.Fatalf("EscrowBalance = %d, want %d", got, rentValue)
		}
	})

	t.Run("underpayment and overpayment both fail IncorrectPayment", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		for _, value := range []uint64{rentValue - 50, rentValue + 1, 0} {
			if _, err := l.Rent(id, renter, value, t0); !errors.Is(err, domain.ErrIncorrectPayment) {
				t.Fatalf("Rent(value=%d) error = %v, want ErrIncorrectPayment", value, err)
			}
		}
		if got := l.EscrowBalance(); got != 0 {
			t.Fatalf("EscrowBalance after failed rents = %d, want 0", got)
		}
	})

	t.Run("second rent fails NotListed", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if _, err := l.Rent(id, renter, rentValue, t0); err != nil {
			t.Fatalf("Rent: %v", err)
		}
		if _, err := l.Rent(id, other, rentValue, t0); !errors.Is(err, domain.ErrItemNotListed) {
			t.Fatalf("second Rent error = %v, want ErrItemNotListed", err)
		}
	})

	t.Run("delisted item fails NotListed", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if err := l.Delist(id, owner); err != nil {
			t.Fatalf("Delist: %v", err)
		}
		if _, err := l.Rent(id, renter, rentValue, t0); !errors.Is(err, domain.ErrItemNotListed) {
			t.Fatalf("Rent error = %v, want ErrItemNotListed", err)
		}
	})

	t.Run("unknown id fails NotFound", func(t *testing.T) {
		l := New(NewMemoryBank())
		if _, err := l.Rent(99, renter, rentValue, t0); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("Rent error = %v, want ErrItemNotFound", err)
		}
	})

	t.Run("owner may rent their own item at the ledger level", func(t *testing.T) {
		l := New(NewMemoryBank())
		id := listTestItem(t, l)
		if _, err := l.Rent(id, owner, rentValue, t0); err != nil {
			t.Fatalf("Rent by owner: %v", err)
		}
	})
}

func TestReturn(t *testing.T) {
	rented := func(t *testing.T) (*Ledger, *MemoryBank, uint64) {
		t.Helper()
		bank := NewMemoryBank()
		l := New(bank)
		id := listTestItem(t, l)
		if _, err := l.Rent(id, renter, rentValue, t0); err != nil {
			t.Fatalf("Rent: %v", err)
		}
		return l, bank, id
	}

	t.Run("immediate return pays one day and refunds the rest", func(t *testing.T) {
		l, bank, id := rented(t)

		s, err := l.Return(id, renter, t0.Add(time.Hour))
		if err != nil {
			t.Fatalf("Return: %v", err)
		}
		if s.RentalFee != 100 || s.LateFee != 0 || s.PaymentToOwner != 100 || s.DepositRefund != 900 {
			t.Fatalf("unexpected settlement %+v", s)
		}
		if got := bank.Balance(owner); got != 100 {
			t.Fatalf("owner balance = %d, want 100", got)
		}
		if got := bank.Balance(renter); got != 900 {
			t.Fatalf("renter balance = %d, want 900", got)
		}

		item, _ := l.Get(id)
		if !item.IsListed || item.Rented() || !item.RentalStartTime.IsZero() {
			t.Fatalf("item not reset after return: %+v", item)
		}
	})

	t.Run("late return caps owner payout at the deposit", func(t *testing.T) {
		l, bank, id := rented(t)

		s, err := l.Return(id, renter, afterDays(15))
		if err != nil {
			t.Fatalf("Return: %v", err)
		}
		// Uncapped figures reported, capped value transferred.
		if s.RentalFee != 1500 || s.LateFee != 400 || s.OverdueDays != 4 {
			t.Fatalf("unexpected settlement %+v", s)
		}
		if s.PaymentToOwner != deposit || s.DepositRefund != 0 {
			t.Fatalf("unexpected payout %+v", s)
		}
		if got := bank.Balance(owner); got != deposit {
			t.Fatalf("owner balance = %d, want %d", got, deposit)
		}
		if got := bank.Balance(renter); got != 0 {
			t.Fatalf("renter balance = %d, want 0", got)
		}
	})

	t.Run("prepaid day's rent stays in escrow after settlement", func(t *testing.T) {
		l, _, id := rented(t)

		if _, err := l.Return(id, renter, t0.Add(time.Hour)); err != nil {
			t.Fatalf("Return: %v", err)
		}
		// deposit+dailyPrice in, deposit out: the dailyPrice is stranded.
		if got := l.EscrowBalance(); got != dailyPrice {
			t.Fatalf("EscrowBalance = %d, want %d", got, dailyPrice)
		}
	})

	t.Run("non-renter fails NotCurrentRenter", func(t *testing.T) {
		l, _, id := rented(t)
		if _, err := l.Return(id, other, afterDays(1)); !errors.Is(err, domain.ErrNotCurrentRenter) {
			t.Fatalf("Return error = %v, want ErrNotCurrentRenter", err)
		}
	})

	t.Run("double return fails NotCurrentRenter", func(t *testing.T) {
		l, _, id := rented(t)
		if _, err := l.Return(id, renter, afterDays(1)); err != nil {
			t.Fatalf("Return: %v", err)
		}
		if _, err := l.Return(id, renter, afterDays(2)); !errors.Is(err, domain.ErrNotCurrentRenter) {
			t.Fatalf("second Return error = %v, want ErrNotCurrentRenter", err)
		}
	})

	t.Run("unknown id fails NotFound", func(t *testing.T) {
		l := New(NewMemoryBank())
		if _, err := l.Return(99, renter, t0); !errors.Is(err, domain.ErrItemNotFound) {
			t.Fatalf("Return error = %v, want ErrItemNotFound", err)
		}
	})

	t.Run("item is rentable again after return", func(t *testing.T) {
		l, _, id := rented(t)
		if _, err := l.Return(id, renter, afterDays(1)); err != nil {
			t.Fatalf("Return: %v", err)
		}
		if _, err := l.Rent(id, other, rentValue, afterDays(2)); err != nil {
			t.Fatalf("Rent after return: %v", err)
		}
	})
}

func TestListedIDs(t *testing.T) {
	// Items [1:listed, 2:rented, 3:listed, 4:listed].
	setup := func(t *testing.T) *Ledger {
		t.Helper()
		l := New(NewMemoryBank())
		for i := 0; i < 4; i++ {
			listTestItem(t, l)
		}
		if _, err := l.Rent(2, renter, rentValue, t0); err != nil {
			t.Fatalf("Rent: %v", err)
		}
		return l
	}

	equal := func(a, b []uint64) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	t.Run("skips non-listed ids without consuming slots", func(t *testing.T) {
		l := setup(t)
		if got := l.ListedIDs(0, 2); !equal(got, []uint64{1, 3}) {
			t.Fatalf("ListedIDs(0,2) = %v, want [1 3]", got)
		}
	})

	t.Run("offset is a position in id-space, not in results", func(t *testing.T) {
		l := setup(t)
		// Offset 1 starts the scan at id 2 (rented, skipped): [3 4].
		if got := l.ListedIDs(1, 2); !equal(got, []uint64{3, 4}) {
			t.Fatalf("ListedIDs(1,2) = %v, want [3 4]", got)
		}
	})

	t.Run("offset past total yields empty", func(t *testing.T) {
		l := setup(t)
		if got := l.ListedIDs(10, 5); len(got) != 0 {
			t.Fatalf("ListedIDs(10,5) = %v, want empty", got)
		}
	})

	t.Run("limit truncates the scan", func(t *testing.T) {
		l := setup(t)
		if got := l.ListedIDs(0, 1); !equal(got, []uint64{1}) {
			t.Fatalf("ListedIDs(0,1) = %v, want [1]", got)
		}
	})

	t.Run("zero limit yields empty", func(t *testing.T) {
		l := setup(t)
		if got := l.ListedIDs(0, 0); len(got) != 0 {
			t.Fatalf("ListedIDs(0,0) = %v, want empty", got)
		}
	})
}

// reentrantBank calls back into the ledger while a payment is in flight,
// standing in for account-owned code reached during a transfer.
type reentrantBank struct {
	ledger  *Ledger
	attack  func(l *Ledger) error
	attacks []error
}

func (b *reentrantBank) Pay(payments ...Payment) error {
	if b.attack != nil {
		b.attacks = append(b.attacks, b.attack(b.ledger))
	}
	return nil
}

func TestReturnRejectsReentrancy(t *testing.T) {
	tests := []struct {
		name   string
		attack func(l *Ledger) error
	}{
		{"nested return", func(l *Ledger) error {
			_, err := l.Return(1, renter, afterDays(1))
			return err
		}},
		{"nested rent", func(l *Ledger) error {
			_, err := l.Rent(1, other, rentValue, afterDays(1))
			return err
		}},
		{"nested list", func(l *Ledger) error {
			_, err := l.List("Sneak", dailyPrice, deposit, "cid", other)
			return err
		}},
		{"nested delist", func(l *Ledger) error {
			return l.Delist(1, owner)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank := &reentrantBank{attack: tt.attack}
			l := New(bank)
			bank.ledger = l

			id := listTestItem(t, l)
			if _, err := l.Rent(id, renter, rentValue, t0); err != nil {
				t.Fatalf("Rent: %v", err)
			}

			if _, err := l.Return(id, renter, afterDays(1)); err != nil {
				t.Fatalf("outer Return: %v", err)
			}

			if len(bank.attacks) == 0 {
				t.Fatal("attack was never attempted")
			}
			for _, err := range bank.attacks {
				if !errors.Is(err, domain.ErrReentrantCall) {
					t.Fatalf("nested call error = %v, want ErrReentrantCall", err)
				}
			}

			item, err := l.Get(id)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !item.IsListed || item.Rented() {
				t.Fatalf("item state corrupted by reentrancy attempt: %+v", item)
			}
		})
	}
}

// failingBank rejects every payment, forcing the rollback path.
type failingBank struct{}

var errBankDown = errors.New("bank unavailable")

func (failingBank) Pay(payments ...Payment) error { return errBankDown }

func TestReturnRollsBackOnTransferFailure(t *testing.T) {
	l := New(failingBank{})
	id := listTestItem(t, l)
	if _, err := l.Rent(id, renter, rentValue, t0); err != nil {
		t.Fatalf("Rent: %v", err)
	}

	if _, err := l.Return(id, renter, afterDays(1)); !errors.Is(err, errBankDown) {
		t.Fatalf("Return error = %v, want bank failure", err)
	}

	item, _ := l.Get(id)
	if item.IsListed || item.Renter != renter || !item.RentalStartTime.Equal(t0) {
		t.Fatalf("item not restored after failed transfer: %+v", item)
	}
	if got := l.EscrowBalance(); got != rentValue {
		t.Fatalf("EscrowBalance = %d, want %d", got, rentValue)
	}

	// The rental is still settleable once the bank recovers.
	l.bank = NewMemoryBank()
	if _, err := l.Return(id, renter, afterDays(1)); err != nil {
		t.Fatalf("Return after recovery: %v", err)
	}
}

func TestZeroAccountRejected(t *testing.T) {
	bank := NewMemoryBank()

	t.Run("list", func(t *testing.T) {
		l := New(bank)
		if _, err := l.List("Test Book", dailyPrice, deposit, "QmTESTcid123", uuid.Nil); !errors.Is(err, domain.ErrInvalidAccount) {
			t.Fatalf("List error = %v, want ErrInvalidAccount", err)
		}
		if got := l.TotalItems(); got != 0 {
			t.Fatalf("TotalItems = %d, want 0", got)
		}
	})

	t.Run("delist", func(t *testing.T) {
		l := New(bank)
		id := listTestItem(t, l)
		if err := l.Delist(id, uuid.Nil); !errors.Is(err, domain.ErrInvalidAccount) {
			t.Fatalf("Delist error = %v, want ErrInvalidAccount", err)
		}
		item, _ := l.Get(id)
		if !item.IsListed {
			t.Fatal("item must stay listed")
		}
	})

	t.Run("rent", func(t *testing.T) {
		l := New(bank)
		id := listTestItem(t, l)
		if _, err := l.Rent(id, uuid.Nil, rentValue, t0); !errors.Is(err, domain.ErrInvalidAccount) {
			t.Fatalf("Rent error = %v, want ErrInvalidAccount", err)
		}
		item, _ := l.Get(id)
		if !item.IsListed || item.Rented() || !item.RentalStartTime.IsZero() {
			t.Fatalf("item state changed by rejected rent: %+v", item)
		}
		if got := l.EscrowBalance(); got != 0 {
			t.Fatalf("EscrowBalance = %d, want 0", got)
		}
	})

	// A zero caller must never settle against a listed, never-rented item:
	// the item's empty Renter field equals uuid.Nil, and without the account
	// check the "only the current renter" comparison would pass, pay the
	// owner a deposit that was never escrowed, and wrap the escrow balance
	// below zero.
	t.Run("return", func(t *testing.T) {
		l := New(bank)
		id := listTestItem(t, l)
		if _, err := l.Return(id, uuid.Nil, afterDays(1)); !errors.Is(err, domain.ErrInvalidAccount) {
			t.Fatalf("Return error = %v, want ErrInvalidAccount", err)
		}
		if got := l.EscrowBalance(); got != 0 {
			t.Fatalf("EscrowBalance = %d, want 0", got)
		}
		if got := bank.Balance(owner); got != 0 {
			t.Fatalf("owner balance = %d, want 0", got)
		}
		item, _ := l.Get(id)
		if !item.IsListed || item.Rented() {
			t.Fatalf("item state changed by rejected return: %+v", item)
		}
	})
}

func TestMemoryBankPayAtomicBatch(t *testing.T) {
	bank := NewMemoryBank()
	account := uuid.New()

	err := bank.Pay(
		Payment{To: account, Amount: 500},
		Payment{To: uuid.Nil, Amount: 100},
	)
	if err == nil {
		t.Fatal("expected error for batch containing a nil account")
	}
	if got := bank.Balance(account); got != 0 {
		t.Fatalf("Balance = %d after rejected batch, want 0", got)
	}

	// The same valid payment succeeds on its own.
	if err := bank.Pay(Payment{To: account, Amount: 500}); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if got := bank.Balance(account); got != 500 {
		t.Fatalf("Balance = %d, want 500", got)
	}
}
