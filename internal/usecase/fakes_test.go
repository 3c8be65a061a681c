package usecase

import (
	"context"
	"sort"
	"sync"

	"backoffice/internal/authz"
	"backoffice/internal/domain/model"
	"backoffice/internal/infra/mailer"
	repo "backoffice/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// 注文まわりのインメモリ実装
// =====================

type memOrders struct {
	mu      sync.Mutex
	byID    map[int64]model.Order
	changes []repo.OrderStatusChange
}

func newMemOrders(orders ...model.Order) *memOrders {
	m := &memOrders{byID: map[int64]model.Order{}}
	for _, o := range orders {
		m.byID[o.ID] = o
	}
	return m
}

func (m *memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok || o.IsDeleted {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) FindByCode(ctx context.Context, code string) (model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.Code == code && !o.IsDeleted {
			return o, nil
		}
	}
	return model.Order{}, repo.ErrNotFound
}

func (m *memOrders) FindByIDForUpdate(ctx context.Context, id int64) (model.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *memOrders) UpdateStatus(ctx context.Context, ch repo.OrderStatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[ch.OrderID]
	if !ok || o.IsDeleted {
		return repo.ErrNotFound
	}
	o.Status = ch.Status
	o.AdminNote = ch.AdminNote
	o.UpdatedAt = ch.At
	actor := ch.ActorID
	o.UpdatedBy = &actor
	m.byID[o.ID] = o
	m.changes = append(m.changes, ch)
	return nil
}

func (m *memOrders) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.byID {
		if o.IsDeleted {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

type memHistory struct {
	mu   sync.Mutex
	rows []model.OrderHistory
	err  error
}

func (m *memHistory) Append(ctx context.Context, h *model.OrderHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	h.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, *h)
	return nil
}

func (m *memHistory) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OrderHistory
	for i := len(m.rows) - 1; i >= 0; i-- {
		if m.rows[i].OrderID == orderID {
			out = append(out, m.rows[i])
		}
	}
	return out, nil
}

func (m *memHistory) forOrder(orderID int64) []model.OrderHistory {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.OrderHistory
	for _, h := range m.rows {
		if h.OrderID == orderID {
			out = append(out, h)
		}
	}
	return out
}

type memItems struct {
	rows []repo.OrderItemDetail
}

func (m *memItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	var out []model.OrderItem
	for _, r := range m.rows {
		if r.OrderID == orderID {
			out = append(out, r.OrderItem)
		}
	}
	return out, nil
}

func (m *memItems) ListDetailedByOrderID(ctx context.Context, orderID int64) ([]repo.OrderItemDetail, error) {
	var out []repo.OrderItemDetail
	for _, r := range m.rows {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

// =====================
// ユーザー / 住所 / 請求書
// =====================

type memUsers struct {
	mu      sync.Mutex
	byID    map[int64]*model.User
	deleted []int64
}

func newMemUsers(users ...model.User) *memUsers {
	m := &memUsers{byID: map[int64]*model.User{}}
	for i := range users {
		u := users[i]
		m.byID[u.ID] = &u
	}
	return m
}

func (m *memUsers) Create(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.byID {
		if x.Email == u.Email && !x.IsDeleted {
			return repo.ErrConflict
		}
	}
	u.ID = int64(len(m.byID) + 1)
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.IsDeleted {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email && !u.IsDeleted {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) List(ctx context.Context, f repo.UserListFilter) ([]model.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.User
	for _, u := range m.byID {
		if !u.IsDeleted {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memUsers) Update(ctx context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.byID[u.ID]
	if !ok || cur.IsDeleted {
		return repo.ErrUserNotFound
	}
	cur.Name = u.Name
	cur.IsActive = u.IsActive
	cur.LastLoginAt = u.LastLoginAt
	if u.PasswordHash != "" {
		cur.PasswordHash = u.PasswordHash
	}
	return nil
}

func (m *memUsers) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || u.IsDeleted {
		return repo.ErrUserNotFound
	}
	u.IsDeleted = true
	m.deleted = append(m.deleted, id)
	return nil
}

type memAddresses struct {
	byID map[int64]model.Address
}

func (m *memAddresses) Create(ctx context.Context, a model.Address) (model.Address, error) {
	a.ID = int64(len(m.byID) + 1)
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAddresses) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	var out []model.Address
	for _, a := range m.byID {
		if a.UserID == userID && !a.IsDeleted {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memAddresses) FindByID(ctx context.Context, id int64) (model.Address, error) {
	a, ok := m.byID[id]
	if !ok || a.IsDeleted {
		return model.Address{}, repo.ErrNotFound
	}
	return a, nil
}

func (m *memAddresses) Update(ctx context.Context, a model.Address) error {
	cur, ok := m.byID[a.ID]
	if !ok || cur.IsDeleted {
		return repo.ErrNotFound
	}
	a.UserID = cur.UserID
	a.IsDefault = cur.IsDefault
	m.byID[a.ID] = a
	return nil
}

func (m *memAddresses) SoftDelete(ctx context.Context, id int64) error {
	a, ok := m.byID[id]
	if !ok || a.IsDeleted {
		return repo.ErrNotFound
	}
	a.IsDeleted = true
	a.IsDefault = false
	m.byID[id] = a
	return nil
}

func (m *memAddresses) SetDefault(ctx context.Context, userID, addressID int64) error {
	target, ok := m.byID[addressID]
	if !ok || target.IsDeleted || target.UserID != userID {
		return repo.ErrNotFound
	}
	for id, a := range m.byID {
		if a.UserID == userID {
			a.IsDefault = id == addressID
			m.byID[id] = a
		}
	}
	return nil
}

type memInvoices struct {
	byID map[int64]model.Invoice
}

func newMemInvoices(invs ...model.Invoice) *memInvoices {
	m := &memInvoices{byID: map[int64]model.Invoice{}}
	for _, inv := range invs {
		m.byID[inv.ID] = inv
	}
	return m
}

func (m *memInvoices) List(ctx context.Context, f repo.InvoiceListFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range m.byID {
		if !inv.IsDeleted {
			out = append(out, inv)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memInvoices) FindByID(ctx context.Context, id int64) (model.Invoice, error) {
	inv, ok := m.byID[id]
	if !ok || inv.IsDeleted {
		return model.Invoice{}, repo.ErrNotFound
	}
	return inv, nil
}

func (m *memInvoices) FindByOrderCode(ctx context.Context, code string) (model.Invoice, bool, error) {
	var (
		best  model.Invoice
		found bool
	)
	for _, inv := range m.byID {
		if inv.IsDeleted || inv.OrderCode == nil || *inv.OrderCode != code {
			continue
		}
		if !found || inv.IssuedAt.After(best.IssuedAt) {
			best, found = inv, true
		}
	}
	return best, found, nil
}

func (m *memInvoices) Create(ctx context.Context, inv model.Invoice) (model.Invoice, error) {
	for _, x := range m.byID {
		if x.Number == inv.Number {
			return model.Invoice{}, repo.ErrConflict
		}
	}
	inv.ID = int64(len(m.byID) + 1)
	m.byID[inv.ID] = inv
	return inv, nil
}

func (m *memInvoices) Update(ctx context.Context, inv model.Invoice) error {
	if _, err := m.FindByID(ctx, inv.ID); err != nil {
		return err
	}
	m.byID[inv.ID] = inv
	return nil
}

func (m *memInvoices) SoftDelete(ctx context.Context, id int64) error {
	inv, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	inv.IsDeleted = true
	m.byID[id] = inv
	return nil
}

// =====================
// カタログ / 監査ログ
// =====================

type memProducts struct {
	byID map[int64]model.Product
}

func newMemProducts(ps ...model.Product) *memProducts {
	m := &memProducts{byID: map[int64]model.Product{}}
	for _, p := range ps {
		m.byID[p.ID] = p
	}
	return m
}

func (m *memProducts) List(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range m.byID {
		if !p.IsDeleted {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (m *memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	p, ok := m.byID[id]
	if !ok || p.IsDeleted {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) FindByIDIncludingDeleted(ctx context.Context, id int64) (model.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (m *memProducts) CountByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	for _, p := range m.byID {
		if !p.IsDeleted && p.CategoryID != nil && *p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (m *memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	for _, x := range m.byID {
		if x.SKU == p.SKU {
			return model.Product{}, repo.ErrConflict
		}
	}
	p.ID = int64(len(m.byID) + 1)
	m.byID[p.ID] = p
	return p, nil
}

func (m *memProducts) Update(ctx context.Context, p model.Product) error {
	if _, err := m.FindByID(ctx, p.ID); err != nil {
		return err
	}
	m.byID[p.ID] = p
	return nil
}

func (m *memProducts) SoftDelete(ctx context.Context, id int64) error {
	p, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	p.MarkDeleted(fixedNow)
	m.byID[id] = p
	return nil
}

type memCategories struct {
	byID map[int64]model.Category
}

func newMemCategories(cs ...model.Category) *memCategories {
	m := &memCategories{byID: map[int64]model.Category{}}
	for _, c := range cs {
		m.byID[c.ID] = c
	}
	return m
}

func (m *memCategories) List(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	for _, c := range m.byID {
		if !c.IsDeleted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCategories) FindByID(ctx context.Context, id int64) (model.Category, error) {
	c, ok := m.byID[id]
	if !ok || c.IsDeleted {
		return model.Category{}, repo.ErrNotFound
	}
	return c, nil
}

func (m *memCategories) Create(ctx context.Context, c model.Category) (model.Category, error) {
	for _, x := range m.byID {
		if x.Slug == c.Slug {
			return model.Category{}, repo.ErrConflict
		}
	}
	c.ID = int64(len(m.byID) + 1)
	m.byID[c.ID] = c
	return c, nil
}

func (m *memCategories) Update(ctx context.Context, c model.Category) error {
	if _, err := m.FindByID(ctx, c.ID); err != nil {
		return err
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memCategories) SoftDelete(ctx context.Context, id int64) error {
	c, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	c.MarkDeleted(fixedNow)
	m.byID[id] = c
	return nil
}

type memAudit struct {
	mu   sync.Mutex
	rows []model.AuditLog
}

func (m *memAudit) Create(ctx context.Context, l model.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, l)
	return nil
}

func (m *memAudit) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AuditLog
	for _, l := range m.rows {
		if f.ResourceType != nil && l.ResourceType != *f.ResourceType {
			continue
		}
		if f.Action != nil && l.Action != *f.Action {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// =====================
// トランザクション
// =====================

type memTxRepos struct {
	orders     *memOrders
	history    *memHistory
	products   *memProducts
	categories *memCategories
	audit      *memAudit
}

func (r *memTxRepos) Orders() repo.OrderRepository              { return r.orders }
func (r *memTxRepos) OrderHistory() repo.OrderHistoryRepository { return r.history }
func (r *memTxRepos) Products() repo.ProductRepository          { return r.products }
func (r *memTxRepos) Categories() repo.CategoryRepository       { return r.categories }
func (r *memTxRepos) AuditLogs() repo.AuditLogRepository        { return r.audit }

// WithinTx は fn がエラーを返したら注文の状態を巻き戻す
type memTx struct {
	repos *memTxRepos
	calls int
}

func (t *memTx) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	t.calls++
	var snapshot map[int64]model.Order
	var historyLen int
	if t.repos.orders != nil {
		t.repos.orders.mu.Lock()
		snapshot = make(map[int64]model.Order, len(t.repos.orders.byID))
		for k, v := range t.repos.orders.byID {
			snapshot[k] = v
		}
		t.repos.orders.mu.Unlock()
	}
	if t.repos.history != nil {
		historyLen = len(t.repos.history.rows)
	}

	err := fn(t.repos)
	if err != nil {
		if t.repos.orders != nil {
			t.repos.orders.mu.Lock()
			t.repos.orders.byID = snapshot
			t.repos.orders.mu.Unlock()
		}
		if t.repos.history != nil {
			t.repos.history.rows = t.repos.history.rows[:historyLen]
		}
	}
	return err
}

// =====================
// モック（送信・権限）
// =====================

type senderMock struct{ mock.Mock }

func (m *senderMock) Send(ctx context.Context, msgs []mailer.Message) ([]mailer.Result, error) {
	args := m.Called(ctx, msgs)
	switch v := args.Get(0).(type) {
	case func(context.Context, []mailer.Message) []mailer.Result:
		return v(ctx, msgs), args.Error(1)
	case []mailer.Result:
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

// 全宛先成功
func okResults(msgs []mailer.Message) []mailer.Result {
	out := make([]mailer.Result, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, mailer.Result{To: m.To})
	}
	return out
}

type notifierMock struct{ mock.Mock }

func (m *notifierMock) NotifyStatusChange(ctx context.Context, n StatusChangeNotice) NotificationResult {
	args := m.Called(ctx, n)
	return args.Get(0).(NotificationResult)
}

// ロールを固定で返す Authorizer
type stubAuthorizer struct {
	roles       map[int64]model.RoleSet
	primary     map[string]bool
	invalidated []int64
}

func (a *stubAuthorizer) RolesFor(ctx context.Context, u *model.User) (model.RoleSet, error) {
	set := model.NewRoleSet()
	for n := range a.roles[u.ID] {
		set.Add(n)
	}
	if a.primary[u.Email] {
		set.Add(model.RoleSuperadmin)
	}
	return set, nil
}

func (a *stubAuthorizer) Can(ctx context.Context, userID int64, c authz.Capability) (bool, error) {
	return authz.CapabilitiesFor(a.roles[userID]).Has(c), nil
}

func (a *stubAuthorizer) IsPrimarySuperadmin(email string) bool {
	return a.primary[email]
}

func (a *stubAuthorizer) Invalidate(ctx context.Context, userID int64) {
	a.invalidated = append(a.invalidated, userID)
}
