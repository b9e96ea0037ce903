package catalog

import (
	"context"
	"sync"

	"cardgate/internal/sentinel"
)

// Memory is a Store for tests. Plan filtering by merchant is keyed on an
// explicit assignment map, with no expiry logic.
type Memory struct {
	mu            sync.RWMutex
	states        []State
	plans         []Plan
	merchantPlans map[int64][]int64 // merchant ID -> plan IDs
	purchases     map[int64][]CardPurchase
	installments  map[int64][]PurchaseInstallment
	merchants     []Merchant
	registers     []MerchantRegister
	cards         []Card
	users         []UserAccount
	userLinks     []UserCardMerchant
}

func NewMemory() *Memory {
	return &Memory{
		merchantPlans: make(map[int64][]int64),
		purchases:     make(map[int64][]CardPurchase),
		installments:  make(map[int64][]PurchaseInstallment),
	}
}

func (m *Memory) AddState(st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, st)
}

func (m *Memory) AddPlan(p Plan, merchantIDs ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, p)
	for _, id := range merchantIDs {
		m.merchantPlans[id] = append(m.merchantPlans[id], p.ID)
	}
}

func (m *Memory) AddCardPurchase(cardID int64, p CardPurchase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purchases[cardID] = append(m.purchases[cardID], p)
}

func (m *Memory) AddPurchaseInstallment(purchaseID int64, pi PurchaseInstallment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.installments[purchaseID] = append(m.installments[purchaseID], pi)
}

func (m *Memory) AddMerchant(mer Merchant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants = append(m.merchants, mer)
}

func (m *Memory) AddRegister(reg MerchantRegister) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registers = append(m.registers, reg)
}

func (m *Memory) AddCard(c Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = append(m.cards, c)
}

func (m *Memory) AddUser(u UserAccount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = append(m.users, u)
}

func (m *Memory) AddUserLink(link UserCardMerchant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userLinks = append(m.userLinks, link)
}

func (m *Memory) States(context.Context) ([]State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]State(nil), m.states...), nil
}

func (m *Memory) StateByID(_ context.Context, id int64) (*State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, st := range m.states {
		if st.ID == id {
			out := st
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) Plans(context.Context) ([]Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Plan(nil), m.plans...), nil
}

func (m *Memory) PlanByID(_ context.Context, id int64) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.plans {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) RecentPurchases(_ context.Context, cardID int64) ([]CardPurchase, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]CardPurchase, 0, len(m.purchases[cardID])), m.purchases[cardID]...), nil
}

func (m *Memory) PurchaseInstallments(_ context.Context, purchaseID int64) ([]PurchaseInstallment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append(make([]PurchaseInstallment, 0, len(m.installments[purchaseID])), m.installments[purchaseID]...), nil
}

func (m *Memory) MerchantByID(_ context.Context, id int64) (*Merchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mer := range m.merchants {
		if mer.ID == id {
			out := mer
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) MerchantRegisters(_ context.Context, merchantID int64) ([]MerchantRegister, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MerchantRegister, 0, 4)
	for _, reg := range m.registers {
		if reg.MerchantID == merchantID {
			out = append(out, reg)
		}
	}
	return out, nil
}

func (m *Memory) CardByID(_ context.Context, id int64) (*Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.cards {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) UserByName(_ context.Context, userName string) (*UserAccount, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.UserName == userName {
			out := u
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) UserCardMerchant(_ context.Context, userID string) (*UserCardMerchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, link := range m.userLinks {
		if link.UserID == userID {
			out := link
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (m *Memory) PlansByMerchant(_ context.Context, merchantID int64) ([]MerchantPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MerchantPlan, 0, 4)
	for _, planID := range m.merchantPlans[merchantID] {
		for _, p := range m.plans {
			if p.ID == planID && p.Active {
				out = append(out, MerchantPlan{
					ID:           p.ID,
					Name:         p.Name,
					Installments: p.Installments,
					Interest:     p.Interest,
					FinanceCost:  p.FinanceCost,
				})
			}
		}
	}
	return out, nil
}
