package memdb

import (
	"bufio"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dShop/lib/db"
	"github.com/ValentinKolb/dShop/lib/db/engines/memdb/internal"
	"github.com/ValentinKolb/dShop/lib/model"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	magicNum     = "DSHOPDB\x00" // File format identifier
	memdbVersion = 1             // Database version
)

// --------------------------------------------------------------------------
// Core database structure
// --------------------------------------------------------------------------

// memImpl implements db.ShopDB with one concurrent map per table
type memImpl struct {
	// writeMu serializes all writers. Readers only touch the tables and never block.
	writeMu sync.Mutex

	users      *internal.Table[model.User]
	products   *internal.Table[model.Product]
	cartItems  *internal.Table[model.CartItem]
	orders     *internal.Table[model.Order]
	orderItems *internal.Table[model.OrderItem]

	currIndex atomic.Uint64 // Current logical timestamp
}

// snapshot is the gob encoded body of a saved database
type snapshot struct {
	WriteIndex uint64
	Users      internal.Dump[model.User]
	Products   internal.Dump[model.Product]
	CartItems  internal.Dump[model.CartItem]
	Orders     internal.Dump[model.Order]
	OrderItems internal.Dump[model.OrderItem]
}

// NewMemDB creates a new empty in-memory shop database
func NewMemDB() db.ShopDB {
	return &memImpl{
		users:      internal.NewTable(func(u model.User) uint64 { return u.ID }),
		products:   internal.NewTable(func(p model.Product) uint64 { return p.ID }),
		cartItems:  internal.NewTable(func(c model.CartItem) uint64 { return c.ID }),
		orders:     internal.NewTable(func(o model.Order) uint64 { return o.ID }),
		orderItems: internal.NewTable(func(o model.OrderItem) uint64 { return o.ID }),
	}
}

// --------------------------------------------------------------------------
// Users
// --------------------------------------------------------------------------

func (m *memImpl) CreateUser(user model.InsertUser, writeIndex uint64) (model.User, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	if _, taken := m.GetUserByUsername(user.Username); taken {
		return model.User{}, fmt.Errorf("username %q already exists: %w", user.Username, db.ErrConflict)
	}

	role := user.Role
	if role == "" {
		role = model.RoleUser
	}

	return m.users.Insert(func(id uint64) model.User {
		return model.User{
			ID:       id,
			Username: user.Username,
			Password: user.Password,
			Role:     role,
		}
	}), nil
}

func (m *memImpl) GetUser(id uint64) (model.User, bool) {
	return m.users.Get(id)
}

func (m *memImpl) GetUserByUsername(username string) (model.User, bool) {
	return m.users.Find(func(u model.User) bool {
		return u.Username == username
	})
}

// --------------------------------------------------------------------------
// Products
// --------------------------------------------------------------------------

func (m *memImpl) GetProducts() []model.Product {
	return m.products.Filter(nil)
}

func (m *memImpl) GetProduct(id uint64) (model.Product, bool) {
	return m.products.Get(id)
}

func (m *memImpl) CreateProduct(product model.InsertProduct, writeIndex uint64) model.Product {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	return m.insertProduct(product)
}

// insertProduct must be called with writeMu held
func (m *memImpl) insertProduct(product model.InsertProduct) model.Product {
	return m.products.Insert(func(id uint64) model.Product {
		return model.Product{
			ID:          id,
			Name:        product.Name,
			Description: product.Description,
			Price:       product.Price,
			Category:    product.Category,
			Stock:       product.Stock,
			ImageURL:    product.ImageURL,
		}
	})
}

func (m *memImpl) SeedProducts(products []model.InsertProduct, writeIndex uint64) []model.Product {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	if m.products.Len() > 0 {
		return []model.Product{}
	}

	created := make([]model.Product, 0, len(products))
	for _, p := range products {
		created = append(created, m.insertProduct(p))
	}
	return created
}

func (m *memImpl) UpdateProduct(id uint64, patch model.ProductPatch, writeIndex uint64) (model.Product, bool) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	product, ok := m.products.Get(id)
	if !ok {
		return model.Product{}, false
	}
	updated := patch.Apply(product)
	m.products.Put(updated)
	return updated, true
}

func (m *memImpl) DeleteProduct(id uint64, writeIndex uint64) bool {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	return m.products.Delete(id)
}

func (m *memImpl) SearchProducts(query string) []model.Product {
	q := strings.ToLower(query)
	return m.products.Filter(func(p model.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Category), q)
	})
}

// --------------------------------------------------------------------------
// Cart
// --------------------------------------------------------------------------

func (m *memImpl) GetCartItems(userID uint64) []model.CartItemWithProduct {
	items := m.cartOf(userID)

	result := make([]model.CartItemWithProduct, 0, len(items))
	for _, item := range items {
		if product, ok := m.products.Get(item.ProductID); ok {
			result = append(result, model.CartItemWithProduct{CartItem: item, Product: product})
		}
	}
	return result
}

func (m *memImpl) GetCartItem(id uint64) (model.CartItem, bool) {
	return m.cartItems.Get(id)
}

func (m *memImpl) AddToCart(item model.InsertCartItem, writeIndex uint64) (model.CartItem, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	if err := model.ValidateQuantity(item.Quantity); err != nil {
		return model.CartItem{}, fmt.Errorf("%v: %w", err, db.ErrInvalidInput)
	}
	if _, ok := m.products.Get(item.ProductID); !ok {
		return model.CartItem{}, fmt.Errorf("product %d: %w", item.ProductID, db.ErrNotFound)
	}

	// merge with an existing item for the same product
	existing, ok := m.cartItems.Find(func(c model.CartItem) bool {
		return c.UserID == item.UserID && c.ProductID == item.ProductID
	})
	if ok {
		if existing.Quantity > model.MaxQuantity-item.Quantity {
			return model.CartItem{}, fmt.Errorf("cart item %d would hold more than %d items: %w", existing.ID, model.MaxQuantity, db.ErrInvalidInput)
		}
		existing.Quantity += item.Quantity
		m.cartItems.Put(existing)
		return existing, nil
	}

	return m.cartItems.Insert(func(id uint64) model.CartItem {
		return model.CartItem{
			ID:        id,
			UserID:    item.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
	}), nil
}

func (m *memImpl) UpdateCartItem(id uint64, quantity int64, writeIndex uint64) (model.CartItem, bool) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	item, ok := m.cartItems.Get(id)
	if !ok {
		return model.CartItem{}, false
	}
	item.Quantity = quantity
	m.cartItems.Put(item)
	return item, true
}

func (m *memImpl) RemoveFromCart(id uint64, writeIndex uint64) bool {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	return m.cartItems.Delete(id)
}

func (m *memImpl) ClearCart(userID uint64, writeIndex uint64) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	m.clearCart(userID)
}

// cartOf returns the raw cart items of a user ordered by id
func (m *memImpl) cartOf(userID uint64) []model.CartItem {
	return m.cartItems.Filter(func(c model.CartItem) bool {
		return c.UserID == userID
	})
}

// clearCart must be called with writeMu held
func (m *memImpl) clearCart(userID uint64) {
	for _, item := range m.cartOf(userID) {
		m.cartItems.Delete(item.ID)
	}
}

// --------------------------------------------------------------------------
// Orders
// --------------------------------------------------------------------------

func (m *memImpl) GetOrders(userID uint64) []model.OrderWithItems {
	orders := m.orders.Filter(func(o model.Order) bool {
		return o.UserID == userID
	})

	// newest first, ties broken by id so the order is stable
	slices.SortStableFunc(orders, func(a, b model.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID > b.ID {
			return -1
		}
		return 1
	})

	result := make([]model.OrderWithItems, 0, len(orders))
	for _, order := range orders {
		result = append(result, m.withItems(order))
	}
	return result
}

func (m *memImpl) GetOrder(id uint64) (model.OrderWithItems, bool) {
	order, ok := m.orders.Get(id)
	if !ok {
		return model.OrderWithItems{}, false
	}
	return m.withItems(order), true
}

func (m *memImpl) CreateOrder(order model.InsertOrder, items []model.InsertOrderItem, createdAt time.Time, writeIndex uint64) model.OrderWithItems {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	return m.createOrder(order, items, createdAt)
}

func (m *memImpl) UpdateOrderStatus(id uint64, status model.OrderStatus, writeIndex uint64) (model.Order, bool) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	order, ok := m.orders.Get(id)
	if !ok {
		return model.Order{}, false
	}
	order.Status = status
	m.orders.Put(order)
	return order, true
}

func (m *memImpl) Checkout(userID uint64, createdAt time.Time, writeIndex uint64) (model.OrderWithItems, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.SetWriteIdx(writeIndex)

	// price the cart with the current product prices
	var (
		items []model.InsertOrderItem
		total int64
	)
	for _, item := range m.cartOf(userID) {
		product, ok := m.products.Get(item.ProductID)
		if !ok {
			continue
		}
		line, err := model.LineTotal(product.Price, item.Quantity)
		if err == nil {
			total, err = model.AddCents(total, line)
		}
		if err != nil {
			return model.OrderWithItems{}, fmt.Errorf("cart item %d: %v: %w", item.ID, err, db.ErrInvalidInput)
		}
		items = append(items, model.InsertOrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
	}

	if len(items) == 0 {
		return model.OrderWithItems{}, db.ErrEmptyCart
	}

	order := m.createOrder(model.InsertOrder{
		UserID: userID,
		Total:  model.FormatCents(total),
		Status: model.OrderStatusPending,
	}, items, createdAt)

	m.clearCart(userID)
	return order, nil
}

// createOrder must be called with writeMu held
func (m *memImpl) createOrder(insert model.InsertOrder, items []model.InsertOrderItem, createdAt time.Time) model.OrderWithItems {
	status := insert.Status
	if status == "" {
		status = model.OrderStatusPending
	}

	order := m.orders.Insert(func(id uint64) model.Order {
		return model.Order{
			ID:        id,
			UserID:    insert.UserID,
			Total:     insert.Total,
			Status:    status,
			CreatedAt: createdAt,
		}
	})

	result := model.OrderWithItems{Order: order, Items: make([]model.OrderItemWithProduct, 0, len(items))}
	for _, insertItem := range items {
		orderItem := m.orderItems.Insert(func(id uint64) model.OrderItem {
			return model.OrderItem{
				ID:        id,
				OrderID:   order.ID,
				ProductID: insertItem.ProductID,
				Quantity:  insertItem.Quantity,
				Price:     insertItem.Price,
			}
		})

		product, ok := m.products.Get(insertItem.ProductID)
		if !ok {
			continue
		}
		result.Items = append(result.Items, model.OrderItemWithProduct{OrderItem: orderItem, Product: product})

		// decrement the stock, never below zero
		product.Stock = max(0, product.Stock-insertItem.Quantity)
		m.products.Put(product)
	}

	return result
}

// withItems joins an order with its items and their products
func (m *memImpl) withItems(order model.Order) model.OrderWithItems {
	items := m.orderItems.Filter(func(i model.OrderItem) bool {
		return i.OrderID == order.ID
	})

	result := model.OrderWithItems{Order: order, Items: make([]model.OrderItemWithProduct, 0, len(items))}
	for _, item := range items {
		if product, ok := m.products.Get(item.ProductID); ok {
			result.Items = append(result.Items, model.OrderItemWithProduct{OrderItem: item, Product: product})
		}
	}
	return result
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the database to the writer.
// Writers are blocked while the tables are copied, the encoding itself runs without locks.
func (m *memImpl) Save(w io.Writer) error {
	m.writeMu.Lock()
	snap := m.dump()
	m.writeMu.Unlock()

	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	// Write memdb version
	if err := binary.Write(bw, binary.LittleEndian, uint8(memdbVersion)); err != nil {
		return err
	}

	// Write tables
	if err := gob.NewEncoder(bw).Encode(snap); err != nil {
		return fmt.Errorf("failed to encode tables: %w", err)
	}

	return bw.Flush()
}

// Load restores a database from the reader. All existing rows are replaced.
func (m *memImpl) Load(r io.Reader) error {
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}
	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}
	if int(version) != memdbVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, memdbVersion)
	}

	var snap snapshot
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return fmt.Errorf("failed to decode tables: %w", err)
	}

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	m.restore(snap)
	return nil
}

// Snapshot returns a deep copy of the database
func (m *memImpl) Snapshot() db.ShopDB {
	m.writeMu.Lock()
	snap := m.dump()
	m.writeMu.Unlock()

	clone := NewMemDB().(*memImpl)
	clone.restore(snap)
	return clone
}

// dump must be called with writeMu held
func (m *memImpl) dump() snapshot {
	return snapshot{
		WriteIndex: m.currIndex.Load(),
		Users:      m.users.Dump(),
		Products:   m.products.Dump(),
		CartItems:  m.cartItems.Dump(),
		Orders:     m.orders.Dump(),
		OrderItems: m.orderItems.Dump(),
	}
}

// restore must be called with writeMu held (or on a database nobody else can see yet)
func (m *memImpl) restore(snap snapshot) {
	m.users.Restore(snap.Users)
	m.products.Restore(snap.Products)
	m.cartItems.Restore(snap.CartItems)
	m.orders.Restore(snap.Orders)
	m.orderItems.Restore(snap.OrderItems)
	m.currIndex.Store(snap.WriteIndex)
}

// --------------------------------------------------------------------------
// Info and Index Management
// --------------------------------------------------------------------------

func (m *memImpl) GetInfo() db.DatabaseInfo {
	stats := func(rows int, next uint64) db.TableStats {
		return db.TableStats{Rows: rows, NextID: next}
	}

	return db.DatabaseInfo{
		DbType:     db.ImplMemDB,
		WriteIndex: m.currIndex.Load(),
		Tables: map[string]db.TableStats{
			"users":       stats(m.users.Len(), m.users.NextID()),
			"products":    stats(m.products.Len(), m.products.NextID()),
			"cart_items":  stats(m.cartItems.Len(), m.cartItems.NextID()),
			"orders":      stats(m.orders.Len(), m.orders.NextID()),
			"order_items": stats(m.orderItems.Len(), m.orderItems.NextID()),
		},
		Metadata: "Row counts are read without locks and may be slightly out of date.",
	}
}

// SetWriteIdx safely updates the current index
// It only updates if the new index is greater than the current one
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (m *memImpl) SetWriteIdx(newIdx uint64) {
	for {
		currIdx := m.currIndex.Load()
		if newIdx <= currIdx {
			return
		}
		if m.currIndex.CompareAndSwap(currIdx, newIdx) {
			return
		}
	}
}

// WriteIdx returns the current index of the database
func (m *memImpl) WriteIdx() uint64 {
	return m.currIndex.Load()
}

// Close is a no-op, the memdb holds no background resources
func (m *memImpl) Close() error {
	return nil
}
