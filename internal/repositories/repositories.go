package repositories

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"booktribe/internal/models"
)

type UserRepository interface {
	GetByAuthID(authID string) (*models.User, error)
	Create(user *models.User) error
	List() ([]models.User, error)
	IncrementBooksCount(authID string, delta int) error
}

type BookRepository interface {
	Create(book *models.Book) error
	Save(book *models.Book) error
	Delete(id uuid.UUID) error
	GetByID(id uuid.UUID) (*models.Book, error)
	ListByOwner(ownerID string) ([]models.Book, error)
}

// concrete implementations

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByAuthID(authID string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "auth_id = ?", authID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) List() ([]models.User, error) {
	var users []models.User
	if err := r.db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// IncrementBooksCount bumps the denormalized counter with a server-side
// expression so concurrent submissions cannot lose updates.
func (r *userRepository) IncrementBooksCount(authID string, delta int) error {
	return r.db.Model(&models.User{}).
		Where("auth_id = ?", authID).
		UpdateColumn("books_count", gorm.Expr("books_count + ?", delta)).
		Error
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(book *models.Book) error {
	return r.db.Create(book).Error
}

func (r *bookRepository) Save(book *models.Book) error {
	return r.db.Save(book).Error
}

func (r *bookRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&models.Book{}, "id = ?", id).Error
}

func (r *bookRepository) GetByID(id uuid.UUID) (*models.Book, error) {
	var book models.Book
	if err := r.db.First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *bookRepository) ListByOwner(ownerID string) ([]models.Book, error) {
	var books []models.Book
	if err := r.db.Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}
