package tree_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"serwer-dokumentow/internal/models"
	"serwer-dokumentow/internal/tree"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestCreateFolder(t *testing.T) {
	t.Run("Organizacja wyznacza zakres", func(t *testing.T) {
		f := newFixture(t)
		id := f.createFolder(t, alice, "Dokumentacja", nil)

		stored, ok := f.mem.Folder(id)
		require.True(t, ok)
		require.Equal(t, "Dokumentacja", stored.Name)
		require.Equal(t, alice.UserID, stored.OwnerID)
		require.Equal(t, "org-1", stored.OrganizationID)
		require.Nil(t, stored.ParentFolderID)
		require.False(t, stored.CreatedAt.IsZero())
	})

	t.Run("Bez organizacji zakresem jest użytkownik", func(t *testing.T) {
		f := newFixture(t)
		id := f.createFolder(t, solo, "Prywatne", nil)

		stored, _ := f.mem.Folder(id)
		require.Equal(t, solo.UserID, stored.OrganizationID)
	})

	t.Run("Rodzic nie jest weryfikowany", func(t *testing.T) {
		f := newFixture(t)
		id := f.createFolder(t, alice, "Sierota", ptr("missing-parent"))

		stored, _ := f.mem.Folder(id)
		require.Equal(t, "missing-parent", *stored.ParentFolderID)
	})

	t.Run("Pusta nazwa", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateFolder(context.Background(), alice, tree.CreateFolderInput{Name: ""})
		require.ErrorIs(t, err, tree.ErrInvalidArgument)
	})
}

func TestGetFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.createFolder(t, alice, "Wspólny", nil)

	folder, err := f.svc.GetFolder(ctx, bob, id)
	require.NoError(t, err)
	require.Equal(t, id, folder.ID)

	folder, err = f.svc.GetFolder(ctx, alice, "does-not-exist")
	require.NoError(t, err)
	require.Nil(t, folder)

	_, err = f.svc.GetFolder(ctx, mallory, id)
	require.ErrorIs(t, err, tree.ErrForbidden)
}

func TestGetFolderPath(t *testing.T) {
	ctx := context.Background()

	t.Run("Kolejność od korzenia", func(t *testing.T) {
		f := newFixture(t)
		root := f.createFolder(t, alice, "Root", nil)
		a := f.createFolder(t, alice, "A", &root)
		b := f.createFolder(t, alice, "B", &a)

		path, err := f.svc.GetFolderPath(ctx, bob, b)
		require.NoError(t, err)
		require.Equal(t, []models.PathEntry{
			{ID: root, Name: "Root"},
			{ID: a, Name: "A"},
			{ID: b, Name: "B"},
		}, path)
	})

	t.Run("Wiszący wskaźnik kończy ścieżkę", func(t *testing.T) {
		f := newFixture(t)
		a := f.createFolder(t, alice, "A", ptr("gone"))

		path, err := f.svc.GetFolderPath(ctx, alice, a)
		require.NoError(t, err)
		require.Equal(t, []models.PathEntry{{ID: a, Name: "A"}}, path)
	})

	t.Run("Nieistniejący folder daje pustą ścieżkę", func(t *testing.T) {
		f := newFixture(t)
		path, err := f.svc.GetFolderPath(ctx, alice, "gone")
		require.NoError(t, err)
		require.Empty(t, path)
	})

	t.Run("Obcy przodek jest zabroniony", func(t *testing.T) {
		f := newFixture(t)
		foreign := f.createFolder(t, mallory, "Obcy", nil)
		mine := f.createFolder(t, alice, "Mój", &foreign)

		_, err := f.svc.GetFolderPath(ctx, alice, mine)
		require.ErrorIs(t, err, tree.ErrForbidden)
	})

	t.Run("Uszkodzony cykl nie zapętla", func(t *testing.T) {
		f := newFixture(t)
		f.mem.PutFolder(models.Folder{ID: "x", Name: "X", OwnerID: alice.UserID, OrganizationID: "org-1", ParentFolderID: ptr("y")})
		f.mem.PutFolder(models.Folder{ID: "y", Name: "Y", OwnerID: alice.UserID, OrganizationID: "org-1", ParentFolderID: ptr("x")})

		path, err := f.svc.GetFolderPath(ctx, alice, "x")
		require.NoError(t, err)
		require.Equal(t, []models.PathEntry{{ID: "y", Name: "Y"}, {ID: "x", Name: "X"}}, path)
	})
}

func TestListFolders(t *testing.T) {
	ctx := context.Background()

	t.Run("Sortowanie zależne od języka", func(t *testing.T) {
		f := newFixture(t)
		for _, name := range []string{"cherry", "Zebra", "Äpfel", "banana", "apple"} {
			f.createFolder(t, alice, name, nil)
		}
		f.createFolder(t, mallory, "aaa", nil)

		folders, err := f.svc.ListFolders(ctx, bob, nil)
		require.NoError(t, err)

		names := make([]string, 0, len(folders))
		for _, folder := range folders {
			names = append(names, folder.Name)
		}
		require.Equal(t, []string{"Äpfel", "apple", "banana", "cherry", "Zebra"}, names)
	})

	t.Run("Tylko dzieci rodzica", func(t *testing.T) {
		f := newFixture(t)
		parent := f.createFolder(t, alice, "Rodzic", nil)
		f.createFolder(t, alice, "Dziecko", &parent)
		f.createFolder(t, alice, "Inny", nil)

		folders, err := f.svc.ListFolders(ctx, alice, &parent)
		require.NoError(t, err)
		require.Len(t, folders, 1)
		require.Equal(t, "Dziecko", folders[0].Name)

		folders, err = f.svc.ListFolders(ctx, alice, ptr("empty"))
		require.NoError(t, err)
		require.NotNil(t, folders)
		require.Empty(t, folders)
	})

	t.Run("Kolejność nie zależy od wstawiania", func(t *testing.T) {
		names := []string{"delta", "Alpha", "charlie", "Bravo", "echo"}
		var first []string
		for seed := int64(0); seed < 5; seed++ {
			f := newFixture(t, tree.WithCollation(language.Polish))
			shuffled := append([]string(nil), names...)
			rand.New(rand.NewSource(seed)).Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			for _, name := range shuffled {
				f.createFolder(t, alice, name, nil)
			}

			folders, err := f.svc.ListFolders(ctx, alice, nil)
			require.NoError(t, err)
			got := make([]string, 0, len(folders))
			for _, folder := range folders {
				got = append(got, folder.Name)
			}
			if first == nil {
				first = got
			}
			require.Equal(t, first, got)
		}
		require.Equal(t, []string{"Alpha", "Bravo", "charlie", "delta", "echo"}, first)
	})
}

func TestUpdateFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("Zmiana nazwy", func(t *testing.T) {
		f := newFixture(t)
		parent := f.createFolder(t, alice, "Rodzic", nil)
		id := f.createFolder(t, alice, "Stara", &parent)

		require.NoError(t, f.svc.UpdateFolder(ctx, alice, id, tree.UpdateFolderInput{Name: ptr("Nowa")}))

		stored, _ := f.mem.Folder(id)
		require.Equal(t, "Nowa", stored.Name)
		require.Equal(t, parent, *stored.ParentFolderID, "pominięty rodzic pozostaje bez zmian")
	})

	t.Run("Przeniesienie do korzenia", func(t *testing.T) {
		f := newFixture(t)
		parent := f.createFolder(t, alice, "Rodzic", nil)
		id := f.createFolder(t, alice, "Dziecko", &parent)

		require.NoError(t, f.svc.UpdateFolder(ctx, alice, id, tree.UpdateFolderInput{ParentFolderID: models.ClearID()}))

		stored, _ := f.mem.Folder(id)
		require.Nil(t, stored.ParentFolderID)
		require.Equal(t, "Dziecko", stored.Name)
	})

	t.Run("Przeniesienie pod potomka jest odrzucane w całości", func(t *testing.T) {
		f := newFixture(t)
		a := f.createFolder(t, alice, "A", nil)
		b := f.createFolder(t, alice, "B", &a)
		d := f.createFolder(t, alice, "D", &b)

		err := f.svc.UpdateFolder(ctx, alice, a, tree.UpdateFolderInput{
			Name:           ptr("Zmieniona"),
			ParentFolderID: models.SetID(d),
		})
		require.ErrorIs(t, err, tree.ErrCircularMove)

		stored, _ := f.mem.Folder(a)
		require.Equal(t, "A", stored.Name)
		require.Nil(t, stored.ParentFolderID)
	})

	t.Run("Przeniesienie do samego siebie", func(t *testing.T) {
		f := newFixture(t)
		a := f.createFolder(t, alice, "A", nil)

		err := f.svc.UpdateFolder(ctx, alice, a, tree.UpdateFolderInput{ParentFolderID: models.SetID(a)})
		require.ErrorIs(t, err, tree.ErrCircularMove)
	})

	t.Run("Scenariusz F1 pod F2", func(t *testing.T) {
		f := newFixture(t)
		f1 := f.createFolder(t, alice, "F1", nil)
		f2 := f.createFolder(t, alice, "F2", &f1)

		err := f.svc.UpdateFolder(ctx, alice, f1, tree.UpdateFolderInput{ParentFolderID: models.SetID(f2)})
		require.ErrorIs(t, err, tree.ErrCircularMove)

		folder, err := f.svc.GetFolder(ctx, alice, f1)
		require.NoError(t, err)
		require.Nil(t, folder.ParentFolderID)
	})

	t.Run("Przeniesienie do rodzeństwa", func(t *testing.T) {
		f := newFixture(t)
		a := f.createFolder(t, alice, "A", nil)
		b := f.createFolder(t, alice, "B", nil)

		require.NoError(t, f.svc.UpdateFolder(ctx, alice, a, tree.UpdateFolderInput{ParentFolderID: models.SetID(b)}))

		stored, _ := f.mem.Folder(a)
		require.Equal(t, b, *stored.ParentFolderID)
	})

	t.Run("Istniejący cykl traktowany jako cykliczny", func(t *testing.T) {
		f := newFixture(t)
		a := f.createFolder(t, alice, "A", nil)
		f.mem.PutFolder(models.Folder{ID: "x", Name: "X", OwnerID: alice.UserID, OrganizationID: "org-1", ParentFolderID: ptr("y")})
		f.mem.PutFolder(models.Folder{ID: "y", Name: "Y", OwnerID: alice.UserID, OrganizationID: "org-1", ParentFolderID: ptr("x")})

		err := f.svc.UpdateFolder(ctx, alice, a, tree.UpdateFolderInput{ParentFolderID: models.SetID("x")})
		require.ErrorIs(t, err, tree.ErrCircularMove)
	})

	t.Run("Pusty identyfikator rodzica", func(t *testing.T) {
		f := newFixture(t)
		parent := f.createFolder(t, alice, "Rodzic", nil)
		a := f.createFolder(t, alice, "A", &parent)

		err := f.svc.UpdateFolder(ctx, alice, a, tree.UpdateFolderInput{Name: ptr("B"), ParentFolderID: models.SetID("")})
		require.ErrorIs(t, err, tree.ErrInvalidArgument)

		stored, _ := f.mem.Folder(a)
		require.Equal(t, "A", stored.Name)
		require.Equal(t, parent, *stored.ParentFolderID)

		children, err := f.svc.ListFolders(ctx, alice, &parent)
		require.NoError(t, err)
		require.Len(t, children, 1)
	})

	t.Run("Nie właściciel", func(t *testing.T) {
		f := newFixture(t)
		a := f.createFolder(t, alice, "A", nil)

		err := f.svc.UpdateFolder(ctx, bob, a, tree.UpdateFolderInput{Name: ptr("Przejęty")})
		require.ErrorIs(t, err, tree.ErrForbidden)

		stored, _ := f.mem.Folder(a)
		require.Equal(t, "A", stored.Name)
	})

	t.Run("Nie istnieje", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.UpdateFolder(ctx, alice, "missing", tree.UpdateFolderInput{Name: ptr("x")})
		require.ErrorIs(t, err, tree.ErrFolderNotFound)
	})
}

func TestFolderMovesKeepTreeAcyclic(t *testing.T) {
	ctx := context.Background()

	for seed := int64(1); seed <= 20; seed++ {
		f := newFixture(t)
		rng := rand.New(rand.NewSource(seed))

		var ids []string
		for step := 0; step < 60; step++ {
			if len(ids) < 3 || rng.Intn(3) == 0 {
				var parent *string
				if len(ids) > 0 && rng.Intn(2) == 0 {
					parent = ptr(ids[rng.Intn(len(ids))])
				}
				ids = append(ids, f.createFolder(t, alice, "f", parent))
				continue
			}

			id := ids[rng.Intn(len(ids))]
			in := tree.UpdateFolderInput{ParentFolderID: models.SetID(ids[rng.Intn(len(ids))])}
			if rng.Intn(5) == 0 {
				in.ParentFolderID = models.ClearID()
			}
			err := f.svc.UpdateFolder(ctx, alice, id, in)
			if err != nil && !errors.Is(err, tree.ErrCircularMove) {
				require.NoError(t, err)
			}
		}

		folders := f.mem.Folders()
		byID := make(map[string]models.Folder, len(folders))
		for _, folder := range folders {
			byID[folder.ID] = folder
		}
		for _, folder := range folders {
			steps := 0
			current := folder.ParentFolderID
			for current != nil {
				steps++
				require.LessOrEqual(t, steps, len(folders), "seed %d: cycle above %s", seed, folder.ID)
				current = byID[*current].ParentFolderID
			}
		}
	}
}

func TestRemoveFolder(t *testing.T) {
	ctx := context.Background()

	t.Run("Kaskadowe usunięcie całego poddrzewa", func(t *testing.T) {
		f := newFixture(t)
		root := f.createFolder(t, alice, "Root", nil)
		a := f.createFolder(t, alice, "A", &root)
		b := f.createFolder(t, alice, "B", &a)
		docA := f.createDocument(t, alice, "w A", &a)
		docB := f.createDocument(t, alice, "w B", &b)
		docRoot := f.createDocument(t, alice, "w Root", &root)
		survivor := f.createFolder(t, alice, "Obok", nil)
		survivorDoc := f.createDocument(t, alice, "Obok", &survivor)

		require.NoError(t, f.svc.RemoveFolder(ctx, alice, root))

		for _, id := range []string{root, a, b} {
			_, ok := f.mem.Folder(id)
			require.False(t, ok, "folder %s", id)
		}
		for _, id := range []string{docA, docB, docRoot} {
			_, ok := f.mem.Document(id)
			require.False(t, ok, "document %s", id)
		}
		_, ok := f.mem.Folder(survivor)
		require.True(t, ok)
		_, ok = f.mem.Document(survivorDoc)
		require.True(t, ok)
	})

	t.Run("Dokument usuniętego folderu nie istnieje", func(t *testing.T) {
		f := newFixture(t)
		f1 := f.createFolder(t, alice, "F1", nil)
		d1 := f.createDocument(t, alice, "D1", &f1)

		require.NoError(t, f.svc.RemoveFolder(ctx, alice, f1))

		_, err := f.svc.GetDocument(ctx, alice, d1)
		require.ErrorIs(t, err, tree.ErrDocumentNotFound)
	})

	t.Run("Błąd w trakcie kaskady wycofuje wszystko", func(t *testing.T) {
		f := newFixture(t)
		root := f.createFolder(t, alice, "Root", nil)
		a := f.createFolder(t, alice, "A", &root)
		doc := f.createDocument(t, alice, "doc", &a)

		f.mem.FailOn["DeleteFolder"] = errors.New("disk on fire")
		err := f.svc.RemoveFolder(ctx, alice, root)
		require.Error(t, err)
		delete(f.mem.FailOn, "DeleteFolder")

		_, ok := f.mem.Folder(root)
		require.True(t, ok)
		_, ok = f.mem.Folder(a)
		require.True(t, ok)
		_, ok = f.mem.Document(doc)
		require.True(t, ok)
	})

	t.Run("Nie właściciel", func(t *testing.T) {
		f := newFixture(t)
		root := f.createFolder(t, alice, "Root", nil)
		child := f.createFolder(t, alice, "Child", &root)

		require.ErrorIs(t, f.svc.RemoveFolder(ctx, bob, root), tree.ErrForbidden)

		_, ok := f.mem.Folder(root)
		require.True(t, ok)
		_, ok = f.mem.Folder(child)
		require.True(t, ok)
	})

	t.Run("Nie istnieje", func(t *testing.T) {
		f := newFixture(t)
		require.ErrorIs(t, f.svc.RemoveFolder(ctx, alice, "missing"), tree.ErrFolderNotFound)
	})

	t.Run("Uszkodzony cykl poniżej nie zapętla", func(t *testing.T) {
		f := newFixture(t)
		f.mem.PutFolder(models.Folder{ID: "x", Name: "X", OwnerID: alice.UserID, OrganizationID: "org-1", ParentFolderID: ptr("y")})
		f.mem.PutFolder(models.Folder{ID: "y", Name: "Y", OwnerID: alice.UserID, OrganizationID: "org-1", ParentFolderID: ptr("x")})

		require.NoError(t, f.svc.RemoveFolder(ctx, alice, "x"))
		_, ok := f.mem.Folder("x")
		require.False(t, ok)
		_, ok = f.mem.Folder("y")
		require.False(t, ok)
	})
}
