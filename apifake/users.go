package apifake

import (
	"errors"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var errUserNotFound = errors.New("user not found")

// user is an account known to the fake server
type user struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Active       bool   `json:"-"`
}

func hashPassword(password string) (string, error) {
	// MinCost keeps test suites fast; the hash is never persisted.
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// userRepo keeps accounts in memory, keyed by username
type userRepo struct {
	users  map[string]*user
	emails map[string]string // lower-cased email to username
	nextID int
	lock   sync.RWMutex
}

func newUserRepo() *userRepo {
	return &userRepo{
		users:  make(map[string]*user),
		emails: make(map[string]string),
		nextID: 1,
	}
}

func (ur *userRepo) Create(username, email, password string) (*user, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	ur.lock.Lock()
	defer ur.lock.Unlock()

	u := &user{
		ID:           ur.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Active:       true,
	}
	ur.nextID++
	ur.users[username] = u
	ur.emails[strings.ToLower(email)] = username
	return u, nil
}

func (ur *userRepo) Get(username string) (*user, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	u, ok := ur.users[username]
	if !ok {
		return nil, errUserNotFound
	}
	return u, nil
}

func (ur *userRepo) GetByID(id int) (*user, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	for _, u := range ur.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errUserNotFound
}

func (ur *userRepo) GetByEmail(email string) (*user, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	username, ok := ur.emails[strings.ToLower(email)]
	if !ok {
		return nil, errUserNotFound
	}
	return ur.users[username], nil
}

func (ur *userRepo) SetPassword(username, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	ur.lock.Lock()
	defer ur.lock.Unlock()
	u, ok := ur.users[username]
	if !ok {
		return errUserNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (ur *userRepo) SetActive(username string, active bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()
	u, ok := ur.users[username]
	if !ok {
		return errUserNotFound
	}
	u.Active = active
	return nil
}

func (ur *userRepo) Exists(username string) bool {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	_, ok := ur.users[username]
	return ok
}
