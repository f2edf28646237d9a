package tree_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"

	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	mu      sync.Mutex
	hits    []string
	err     error
	indexed []string
	removed []string
}

// Search windows hits the way Meilisearch applies offset and limit.
func (f *fakeIndex) Search(ctx context.Context, scope, text string, offset, limit int) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if offset >= len(f.hits) {
		return nil, nil
	}
	end := min(offset+limit, len(f.hits))
	return f.hits[offset:end], nil
}

func (f *fakeIndex) Index(docs ...models.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.indexed = append(f.indexed, d.ID)
	}
}

func (f *fakeIndex) Remove(ids ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ids...)
}

func TestCreateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Wartości domyślne", func(t *testing.T) {
		f := newFixture(t)
		id, err := f.svc.CreateDocument(ctx, alice, tree.CreateDocumentInput{})
		require.NoError(t, err)

		doc, ok := f.mem.Document(id)
		require.True(t, ok)
		require.Equal(t, models.DefaultDocumentTitle, doc.Title)
		require.Equal(t, "", doc.InitialContent)
		require.Equal(t, models.ContentTypeRegular, doc.ContentType)
		require.Nil(t, doc.ParentFolderID)
		require.Nil(t, doc.UpdateTime)
		require.Equal(t, alice.UserID, doc.OwnerID)
		require.Equal(t, "org-1", doc.OrganizationID)
	})

	t.Run("Podane pola", func(t *testing.T) {
		f := newFixture(t)
		folder := f.createFolder(t, alice, "Notatki", nil)
		ct := models.ContentTypeMarkdown

		id, err := f.svc.CreateDocument(ctx, alice, tree.CreateDocumentInput{
			Title:          ptr("Plan"),
			InitialContent: ptr("# Plan"),
			ContentType:    &ct,
			ParentFolderID: &folder,
		})
		require.NoError(t, err)

		doc, _ := f.mem.Document(id)
		require.Equal(t, "Plan", doc.Title)
		require.Equal(t, "# Plan", doc.InitialContent)
		require.Equal(t, models.ContentTypeMarkdown, doc.ContentType)
		require.Equal(t, folder, *doc.ParentFolderID)
	})

	t.Run("Niepoprawny typ treści", func(t *testing.T) {
		f := newFixture(t)
		ct := models.ContentType("pdf")
		_, err := f.svc.CreateDocument(ctx, alice, tree.CreateDocumentInput{ContentType: &ct})
		require.ErrorIs(t, err, tree.ErrInvalidArgument)
	})

	t.Run("Folder z innego zakresu", func(t *testing.T) {
		f := newFixture(t)
		foreign := f.createFolder(t, mallory, "Obcy", nil)

		_, err := f.svc.CreateDocument(ctx, alice, tree.CreateDocumentInput{ParentFolderID: &foreign})
		require.ErrorIs(t, err, tree.ErrForbidden)
		require.Empty(t, f.mem.Documents())
	})

	t.Run("Nieistniejący folder", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateDocument(ctx, alice, tree.CreateDocumentInput{ParentFolderID: ptr("missing")})
		require.ErrorIs(t, err, tree.ErrFolderNotFound)
	})

	t.Run("Trafia do indeksu", func(t *testing.T) {
		idx := &fakeIndex{}
		f := newFixture(t, tree.WithSearchIndex(idx))
		id := f.createDocument(t, alice, "Raport", nil)
		require.Equal(t, []string{id}, idx.indexed)
	})
}

func TestGetDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDocument(t, alice, "Umowa", nil)

	doc, err := f.svc.GetDocument(ctx, bob, id)
	require.NoError(t, err)
	require.Equal(t, "Umowa", doc.Title)

	_, err = f.svc.GetDocument(ctx, alice, "missing")
	require.ErrorIs(t, err, tree.ErrDocumentNotFound)

	_, err = f.svc.GetDocument(ctx, mallory, id)
	require.ErrorIs(t, err, tree.ErrForbidden)

	// Właściciel widzi dokument także po zmianie organizacji.
	_, err = f.svc.GetDocument(ctx, models.AuthContext{UserID: alice.UserID, OrganizationID: "org-9"}, id)
	require.NoError(t, err)
}

func TestGetDocumentRefs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	existing := f.createDocument(t, alice, "Istnieje", nil)
	deleted := f.createDocument(t, alice, "Usunięty", nil)
	foreign := f.createDocument(t, mallory, "Cudzy", nil)
	require.NoError(t, f.svc.RemoveDocument(ctx, alice, deleted))

	refs, err := f.svc.GetDocumentRefs(ctx, bob, []string{existing, deleted, foreign, existing})
	require.NoError(t, err)
	require.Equal(t, []models.DocumentRef{
		{ID: existing, Name: "Istnieje"},
		{ID: deleted, Name: models.RemovedDocumentName},
		{ID: foreign, Name: models.RemovedDocumentName},
		{ID: existing, Name: "Istnieje"},
	}, refs)

	refs, err = f.svc.GetDocumentRefs(ctx, bob, nil)
	require.NoError(t, err)
	require.Empty(t, refs)
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("Stronicowanie", func(t *testing.T) {
		f := newFixture(t)
		var created []string
		for _, title := range []string{"a", "b", "c", "d", "e"} {
			created = append(created, f.createDocument(t, alice, title, nil))
		}
		f.createDocument(t, mallory, "obcy", nil)

		var seen []string
		page := tree.PageRequest{NumItems: 2}
		for i := 0; ; i++ {
			require.Less(t, i, 5)
			result, err := f.svc.ListDocuments(ctx, bob, "", page)
			require.NoError(t, err)
			require.LessOrEqual(t, len(result.Page), 2)
			for _, doc := range result.Page {
				seen = append(seen, doc.ID)
			}
			if result.IsDone {
				break
			}
			page.Cursor = result.ContinueCursor
		}
		require.Equal(t, created, seen)
	})

	t.Run("Wyszukiwanie w bazie", func(t *testing.T) {
		f := newFixture(t)
		match := f.createDocument(t, alice, "Raport kwartalny", nil)
		f.createDocument(t, alice, "Notatka", nil)
		f.createDocument(t, mallory, "Raport obcy", nil)

		result, err := f.svc.ListDocuments(ctx, alice, "  raport ", tree.PageRequest{})
		require.NoError(t, err)
		require.True(t, result.IsDone)
		require.Len(t, result.Page, 1)
		require.Equal(t, match, result.Page[0].ID)
	})

	t.Run("Wyszukiwanie przez indeks", func(t *testing.T) {
		idx := &fakeIndex{}
		f := newFixture(t, tree.WithSearchIndex(idx))
		first := f.createDocument(t, alice, "Alfa", nil)
		second := f.createDocument(t, alice, "Beta", nil)
		foreign := f.createDocument(t, mallory, "Alfa", nil)
		idx.hits = []string{second, "stale-id", foreign, first}

		result, err := f.svc.ListDocuments(ctx, alice, "cokolwiek", tree.PageRequest{})
		require.NoError(t, err)
		require.Len(t, result.Page, 2)
		require.Equal(t, second, result.Page[0].ID)
		require.Equal(t, first, result.Page[1].ID)
	})

	t.Run("Nieaktualne trafienia nie psują stronicowania", func(t *testing.T) {
		idx := &fakeIndex{}
		f := newFixture(t, tree.WithSearchIndex(idx))

		var live []string
		for i := 0; i < 30; i++ {
			live = append(live, f.createDocument(t, alice, fmt.Sprintf("Raport %02d", i), nil))
		}
		foreign := f.createDocument(t, mallory, "Raport obcy", nil)
		idx.hits = append([]string{"stale-1", "stale-2"}, live[:10]...)
		idx.hits = append(idx.hits, foreign, "stale-3")
		idx.hits = append(idx.hits, live[10:]...)

		var seen []string
		cursor := ""
		for pages := 0; ; pages++ {
			require.Less(t, pages, 5, "stronicowanie się nie kończy")

			result, err := f.svc.ListDocuments(ctx, alice, "raport", tree.PageRequest{Cursor: cursor, NumItems: 20})
			require.NoError(t, err)
			for _, doc := range result.Page {
				seen = append(seen, doc.ID)
			}
			if pages == 0 {
				require.Len(t, result.Page, 20)
				require.False(t, result.IsDone)
			}
			if result.IsDone {
				break
			}
			cursor = result.ContinueCursor
		}
		require.Equal(t, live, seen)
	})

	t.Run("Ostatnia strona kończy się z indeksem", func(t *testing.T) {
		idx := &fakeIndex{}
		f := newFixture(t, tree.WithSearchIndex(idx))
		a := f.createDocument(t, alice, "Raport A", nil)
		b := f.createDocument(t, alice, "Raport B", nil)
		idx.hits = []string{a, b, "stale-1"}

		result, err := f.svc.ListDocuments(ctx, alice, "raport", tree.PageRequest{NumItems: 2})
		require.NoError(t, err)
		require.Len(t, result.Page, 2)
		require.True(t, result.IsDone)
	})

	t.Run("Awaria indeksu przełącza na bazę", func(t *testing.T) {
		idx := &fakeIndex{err: errors.New("meilisearch down")}
		f := newFixture(t, tree.WithSearchIndex(idx))
		match := f.createDocument(t, alice, "Budżet", nil)

		result, err := f.svc.ListDocuments(ctx, alice, "budżet", tree.PageRequest{})
		require.NoError(t, err)
		require.Len(t, result.Page, 1)
		require.Equal(t, match, result.Page[0].ID)
	})

	t.Run("Uszkodzony kursor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.ListDocuments(ctx, alice, "", tree.PageRequest{Cursor: "%%%"})
		require.ErrorIs(t, err, tree.ErrInvalidArgument)
	})
}

func TestListRecentDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	old := f.createDocument(t, alice, "Stary", nil)
	fresh := f.createDocument(t, alice, "Świeży", nil)
	untouched := f.createDocument(t, alice, "Nieruszany", nil)
	require.NoError(t, f.svc.UpdateDocument(ctx, alice, old, tree.UpdateDocumentInput{UpdateTime: ptr(int64(1000))}))
	require.NoError(t, f.svc.UpdateDocument(ctx, alice, fresh, tree.UpdateDocumentInput{UpdateTime: ptr(int64(5000))}))

	result, err := f.svc.ListRecentDocuments(ctx, bob, tree.PageRequest{NumItems: 10})
	require.NoError(t, err)
	require.True(t, result.IsDone)

	ids := make([]string, 0, len(result.Page))
	for _, doc := range result.Page {
		ids = append(ids, doc.ID)
	}
	require.Equal(t, []string{fresh, old, untouched}, ids)
}

func TestListDocumentsByParent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	folder := f.createFolder(t, alice, "Folder", nil)

	for _, title := range []string{"zeszyt", "Ćwiczenia", "Algebra", "biologia"} {
		f.createDocument(t, alice, title, &folder)
	}
	f.createDocument(t, alice, "w korzeniu", nil)

	docs, err := f.svc.ListDocumentsByParent(ctx, bob, &folder)
	require.NoError(t, err)

	titles := make([]string, 0, len(docs))
	for _, doc := range docs {
		titles = append(titles, doc.Title)
	}
	require.Equal(t, []string{"Algebra", "biologia", "Ćwiczenia", "zeszyt"}, titles)

	docs, err = f.svc.ListDocumentsByParent(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestUpdateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("Częściowa aktualizacja", func(t *testing.T) {
		f := newFixture(t)
		folder := f.createFolder(t, alice, "F", nil)
		id := f.createDocument(t, alice, "Tytuł", &folder)

		require.NoError(t, f.svc.UpdateDocument(ctx, alice, id, tree.UpdateDocumentInput{UpdateTime: ptr(int64(42))}))

		doc, _ := f.mem.Document(id)
		require.Equal(t, "Tytuł", doc.Title)
		require.Equal(t, int64(42), *doc.UpdateTime)
		require.Equal(t, folder, *doc.ParentFolderID)

		require.NoError(t, f.svc.UpdateDocument(ctx, alice, id, tree.UpdateDocumentInput{ParentFolderID: models.ClearID()}))
		doc, _ = f.mem.Document(id)
		require.Nil(t, doc.ParentFolderID)
		require.Equal(t, int64(42), *doc.UpdateTime)
	})

	t.Run("Przeniesienie do cudzego folderu nie jest sprawdzane", func(t *testing.T) {
		f := newFixture(t)
		foreign := f.createFolder(t, mallory, "Obcy", nil)
		id := f.createDocument(t, alice, "Mój", nil)

		require.NoError(t, f.svc.UpdateDocument(ctx, alice, id, tree.UpdateDocumentInput{ParentFolderID: models.SetID(foreign)}))

		doc, _ := f.mem.Document(id)
		require.Equal(t, foreign, *doc.ParentFolderID)
	})

	t.Run("Pusty identyfikator folderu", func(t *testing.T) {
		f := newFixture(t)
		folder := f.createFolder(t, alice, "F", nil)
		id := f.createDocument(t, alice, "Mój", &folder)

		err := f.svc.UpdateDocument(ctx, alice, id, tree.UpdateDocumentInput{ParentFolderID: models.SetID("")})
		require.ErrorIs(t, err, tree.ErrInvalidArgument)

		doc, _ := f.mem.Document(id)
		require.Equal(t, folder, *doc.ParentFolderID)
	})

	t.Run("Nie właściciel", func(t *testing.T) {
		f := newFixture(t)
		id := f.createDocument(t, alice, "Mój", nil)

		err := f.svc.UpdateDocument(ctx, bob, id, tree.UpdateDocumentInput{Title: ptr("Przejęty")})
		require.ErrorIs(t, err, tree.ErrForbidden)

		doc, _ := f.mem.Document(id)
		require.Equal(t, "Mój", doc.Title)
	})

	t.Run("Nie istnieje", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.UpdateDocument(ctx, alice, "missing", tree.UpdateDocumentInput{Title: ptr("x")})
		require.ErrorIs(t, err, tree.ErrDocumentNotFound)
	})

	t.Run("Zmiana tytułu aktualizuje indeks", func(t *testing.T) {
		idx := &fakeIndex{}
		f := newFixture(t, tree.WithSearchIndex(idx))
		id := f.createDocument(t, alice, "Przed", nil)

		require.NoError(t, f.svc.UpdateDocument(ctx, alice, id, tree.UpdateDocumentInput{Title: ptr("Po")}))
		require.Equal(t, []string{id, id}, idx.indexed)
	})
}

func TestRemoveDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("Pojedynczy", func(t *testing.T) {
		idx := &fakeIndex{}
		f := newFixture(t, tree.WithSearchIndex(idx))
		id := f.createDocument(t, alice, "Do usunięcia", nil)

		require.NoError(t, f.svc.RemoveDocument(ctx, alice, id))
		_, ok := f.mem.Document(id)
		require.False(t, ok)
		require.Equal(t, []string{id}, idx.removed)

		require.ErrorIs(t, f.svc.RemoveDocument(ctx, alice, id), tree.ErrDocumentNotFound)
	})

	t.Run("Nie właściciel", func(t *testing.T) {
		f := newFixture(t)
		id := f.createDocument(t, alice, "Mój", nil)

		require.ErrorIs(t, f.svc.RemoveDocument(ctx, bob, id), tree.ErrForbidden)
		_, ok := f.mem.Document(id)
		require.True(t, ok)
	})

	t.Run("Wsadowo wszystko albo nic", func(t *testing.T) {
		f := newFixture(t)
		x := f.createDocument(t, alice, "X", nil)
		y := f.createDocument(t, bob, "Y", nil)

		err := f.svc.RemoveDocuments(ctx, alice, []string{x, y})
		require.ErrorIs(t, err, tree.ErrForbidden)
		require.Contains(t, err.Error(), y)

		_, ok := f.mem.Document(x)
		require.True(t, ok)
		_, ok = f.mem.Document(y)
		require.True(t, ok)
	})

	t.Run("Wsadowo brakujący", func(t *testing.T) {
		f := newFixture(t)
		x := f.createDocument(t, alice, "X", nil)

		err := f.svc.RemoveDocuments(ctx, alice, []string{x, "missing"})
		require.ErrorIs(t, err, tree.ErrDocumentNotFound)
		_, ok := f.mem.Document(x)
		require.True(t, ok)
	})

	t.Run("Wsadowo sukces", func(t *testing.T) {
		f := newFixture(t)
		x := f.createDocument(t, alice, "X", nil)
		y := f.createDocument(t, alice, "Y", nil)

		require.NoError(t, f.svc.RemoveDocuments(ctx, alice, []string{x, y}))
		require.Empty(t, f.mem.Documents())
	})
}

func TestAuthorizeRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createDocument(t, alice, "Wspólny", nil)
	personal := f.createDocument(t, solo, "Prywatny", nil)

	_, err := f.svc.AuthorizeRoom(ctx, alice, id)
	require.NoError(t, err)
	_, err = f.svc.AuthorizeRoom(ctx, bob, id)
	require.NoError(t, err)
	_, err = f.svc.AuthorizeRoom(ctx, mallory, id)
	require.ErrorIs(t, err, tree.ErrForbidden)
	_, err = f.svc.AuthorizeRoom(ctx, solo, personal)
	require.NoError(t, err)
	_, err = f.svc.AuthorizeRoom(ctx, models.AuthContext{UserID: "user|other"}, personal)
	require.ErrorIs(t, err, tree.ErrForbidden)
	_, err = f.svc.AuthorizeRoom(ctx, alice, "missing")
	require.ErrorIs(t, err, tree.ErrDocumentNotFound)
}
