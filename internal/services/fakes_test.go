package services

import (
	"context"
	"sync"

	"github.com/pitchside/apiserver/internal/store"
	"github.com/pitchside/apiserver/types"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	users  map[int]types.User
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int]types.User)}
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByIdentifier(_ context.Context, username, email string) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	for id := 1; id <= f.nextID; id++ {
		if user, ok := f.users[id]; ok && user.Email == email {
			return user, nil
		}
	}
	for id := 1; id <= f.nextID; id++ {
		if user, ok := f.users[id]; ok && user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) Create(_ context.Context, user types.User) (types.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.User{}, f.err
	}
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	f.nextID++
	user.ID = f.nextID
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	user, ok := f.users[id]
	if !ok {
		return store.ErrNotFound
	}
	user.PasswordHash = passwordHash
	f.users[id] = user
	return nil
}

type fakeFavoriteRepo struct {
	mu        sync.Mutex
	nextID    int
	favorites map[int]types.Favorite
	err       error
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{favorites: make(map[int]types.Favorite)}
}

func (f *fakeFavoriteRepo) GetByUser(_ context.Context, userID int) (types.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.Favorite{}, f.err
	}
	fav, ok := f.favorites[userID]
	if !ok {
		return types.Favorite{}, store.ErrNotFound
	}
	return fav, nil
}

func (f *fakeFavoriteRepo) Upsert(_ context.Context, userID int, team string) (types.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return types.Favorite{}, f.err
	}
	fav, ok := f.favorites[userID]
	if !ok {
		f.nextID++
		fav = types.Favorite{ID: f.nextID, UserID: userID}
	}
	fav.Team = team
	f.favorites[userID] = fav
	return fav, nil
}

func (f *fakeFavoriteRepo) DeleteByUser(_ context.Context, userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.favorites, userID)
	return nil
}

type emitted struct {
	channel   string
	eventType string
	data      any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) Emit(_ context.Context, channel, eventType string, data any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emitted{channel: channel, eventType: eventType, data: data})
}
