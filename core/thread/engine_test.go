package thread

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"soundreview/model"
	"soundreview/repository"
)

// fakeCommentRepo reproduces the single-statement semantics of the MySQL
// repository in memory: InsertReply only succeeds against an existing root of
// the same track, CloseRoot only flips an open root.
type fakeCommentRepo struct {
	nextID   int64
	comments []*model.Comment
	failWith error
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{nextID: 1}
}

func (f *fakeCommentRepo) InsertRoot(ctx context.Context, trackID int64, timestamp float64, username, content string) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	c := &model.Comment{
		ID:        f.nextID,
		TrackID:   trackID,
		Timestamp: timestamp,
		Username:  username,
		Content:   content,
		CreatedAt: time.Now(),
	}
	f.nextID++
	f.comments = append(f.comments, c)
	return c.ID, nil
}

func (f *fakeCommentRepo) InsertReply(ctx context.Context, trackID, parentID int64, username, content string) (int64, bool, error) {
	if f.failWith != nil {
		return 0, false, f.failWith
	}
	for _, parent := range f.comments {
		if parent.ID == parentID && parent.TrackID == trackID && parent.IsRoot() {
			pid := parent.ID
			c := &model.Comment{
				ID:        f.nextID,
				TrackID:   trackID,
				ParentID:  &pid,
				Timestamp: parent.Timestamp,
				Username:  username,
				Content:   content,
				CreatedAt: time.Now(),
			}
			f.nextID++
			f.comments = append(f.comments, c)
			return c.ID, true, nil
		}
	}
	return 0, false, nil
}

func (f *fakeCommentRepo) CloseRoot(ctx context.Context, commentID, trackID int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, c := range f.comments {
		if c.ID == commentID && c.TrackID == trackID && c.IsRoot() && !c.IsClosed {
			c.IsClosed = true
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCommentRepo) CommentByID(ctx context.Context, id int64) (*model.Comment, error) {
	for _, c := range f.comments {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCommentRepo) CommentsByTrack(ctx context.Context, trackID int64) ([]*model.Comment, error) {
	out := make([]*model.Comment, 0)
	for _, c := range f.comments {
		if c.TrackID == trackID {
			out = append(out, c)
		}
	}
	return out, nil
}

func newTestEngine() (*Engine, *fakeCommentRepo) {
	repo := newFakeCommentRepo()
	return NewEngine(repo, nil), repo
}

func TestCreateRoot(t *testing.T) {
	engine, _ := newTestEngine()

	c, err := engine.CreateRoot(context.Background(), 1, 42.5, "alice", "nice drop")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	if c.Timestamp != 42.5 {
		t.Errorf("got timestamp %v, want 42.5", c.Timestamp)
	}
	if !c.IsRoot() {
		t.Error("root comment has a parent")
	}
	if c.IsClosed {
		t.Error("new comment is closed")
	}
}

func TestCreateRootValidation(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	cases := []struct {
		name      string
		timestamp float64
		username  string
		content   string
	}{
		{"negative timestamp", -1, "alice", "hi"},
		{"NaN timestamp", math.NaN(), "alice", "hi"},
		{"Inf timestamp", math.Inf(1), "alice", "hi"},
		{"empty username", 1, "", "hi"},
		{"whitespace username", 1, "   ", "hi"},
		{"empty content", 1, "alice", ""},
		{"whitespace content", 1, "alice", " \t "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateRoot(ctx, 1, tc.timestamp, tc.username, tc.content)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("got err %v, want ErrValidation", err)
			}
		})
	}

	// Zero is a valid anchor: the very start of the track.
	if _, err := engine.CreateRoot(ctx, 1, 0, "alice", "intro"); err != nil {
		t.Errorf("timestamp 0 rejected: %v", err)
	}
}

func TestCreateReplyInheritsTimestamp(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, 1, 12.25, "alice", "here")
	if err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}

	reply, err := engine.CreateReply(ctx, 1, root.ID, "bob", "agreed")
	if err != nil {
		t.Fatalf("CreateReply failed: %v", err)
	}
	if reply.ParentID == nil || *reply.ParentID != root.ID {
		t.Errorf("reply parent = %v, want %d", reply.ParentID, root.ID)
	}
	if reply.Timestamp != root.Timestamp {
		t.Errorf("reply timestamp %v, want root's %v", reply.Timestamp, root.Timestamp)
	}
}

func TestCreateReplyDepthLimit(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, _ := engine.CreateRoot(ctx, 1, 5, "alice", "root")
	reply, _ := engine.CreateReply(ctx, 1, root.ID, "bob", "reply")

	_, err := engine.CreateReply(ctx, 1, reply.ID, "carol", "reply to reply")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("reply to a reply: got err %v, want ErrValidation", err)
	}
}

func TestCreateReplyMissingParent(t *testing.T) {
	engine, _ := newTestEngine()

	_, err := engine.CreateReply(context.Background(), 1, 999, "bob", "hello?")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestCreateReplyWrongTrack(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, _ := engine.CreateRoot(ctx, 1, 5, "alice", "root")

	// Same comment id presented under a different track must look absent,
	// not leak that the id exists elsewhere.
	_, err := engine.CreateReply(ctx, 2, root.ID, "bob", "wrong door")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("got err %v, want ErrNotFound", err)
	}
}

func TestCloseThread(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, _ := engine.CreateRoot(ctx, 1, 5, "alice", "root")

	if err := engine.CloseThread(ctx, root.ID, 1); err != nil {
		t.Fatalf("CloseThread failed: %v", err)
	}

	comments, err := engine.List(ctx, 1, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(comments) != 1 || !comments[0].IsClosed {
		t.Error("root not marked closed after CloseThread")
	}
}

func TestCloseThreadTwiceConflicts(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, _ := engine.CreateRoot(ctx, 1, 5, "alice", "root")
	if err := engine.CloseThread(ctx, root.ID, 1); err != nil {
		t.Fatalf("first close failed: %v", err)
	}

	err := engine.CloseThread(ctx, root.ID, 1)
	if !errors.Is(err, ErrAlreadyClosed) {
		t.Errorf("second close: got err %v, want ErrAlreadyClosed", err)
	}
}

func TestCloseThreadTargetsRootsOnly(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, _ := engine.CreateRoot(ctx, 1, 5, "alice", "root")
	reply, _ := engine.CreateReply(ctx, 1, root.ID, "bob", "reply")

	if err := engine.CloseThread(ctx, reply.ID, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("closing a reply: got err %v, want ErrNotFound", err)
	}
	if err := engine.CloseThread(ctx, 999, 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("closing a missing comment: got err %v, want ErrNotFound", err)
	}
	if err := engine.CloseThread(ctx, root.ID, 2); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("closing under the wrong track: got err %v, want ErrNotFound", err)
	}
}

func TestClosedThreadStillAcceptsReplies(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	root, _ := engine.CreateRoot(ctx, 1, 5, "alice", "root")
	if err := engine.CloseThread(ctx, root.ID, 1); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if _, err := engine.CreateReply(ctx, 1, root.ID, "bob", "late addition"); err != nil {
		t.Errorf("reply to closed thread rejected: %v", err)
	}
}

func TestListFiltersClosedThreads(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	open, _ := engine.CreateRoot(ctx, 1, 5, "alice", "open thread")
	openReply, _ := engine.CreateReply(ctx, 1, open.ID, "bob", "visible")
	closed, _ := engine.CreateRoot(ctx, 1, 10, "alice", "closed thread")
	engine.CreateReply(ctx, 1, closed.ID, "bob", "hidden with its root")
	if err := engine.CloseThread(ctx, closed.ID, 1); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	all, err := engine.List(ctx, 1, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("includeClosed=true returned %d comments, want 4", len(all))
	}

	visible, err := engine.List(ctx, 1, false)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("includeClosed=false returned %d comments, want 2", len(visible))
	}
	ids := map[int64]bool{visible[0].ID: true, visible[1].ID: true}
	if !ids[open.ID] || !ids[openReply.ID] {
		t.Error("open root and its reply must survive the filter")
	}
}

func TestThreadsGrouping(t *testing.T) {
	engine, _ := newTestEngine()
	ctx := context.Background()

	first, _ := engine.CreateRoot(ctx, 1, 5, "alice", "first")
	second, _ := engine.CreateRoot(ctx, 1, 10, "alice", "second")
	engine.CreateReply(ctx, 1, first.ID, "bob", "r1")
	engine.CreateReply(ctx, 1, first.ID, "carol", "r2")

	comments, err := engine.List(ctx, 1, true)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	threads := Threads(comments)
	if len(threads) != 2 {
		t.Fatalf("got %d threads, want 2", len(threads))
	}
	if threads[0].Root.ID != first.ID || len(threads[0].Replies) != 2 {
		t.Errorf("first thread: root %d with %d replies, want root %d with 2",
			threads[0].Root.ID, len(threads[0].Replies), first.ID)
	}
	if threads[1].Root.ID != second.ID || len(threads[1].Replies) != 0 {
		t.Errorf("second thread: root %d with %d replies, want root %d with 0",
			threads[1].Root.ID, len(threads[1].Replies), second.ID)
	}
}

func TestEngineSurfacesStorageErrors(t *testing.T) {
	repo := newFakeCommentRepo()
	engine := NewEngine(repo, nil)
	boom := errors.New("connection reset")
	repo.failWith = boom

	if _, err := engine.CreateRoot(context.Background(), 1, 5, "alice", "hi"); !errors.Is(err, boom) {
		t.Errorf("CreateRoot: got err %v, want storage error", err)
	}
	if err := engine.CloseThread(context.Background(), 1, 1); !errors.Is(err, boom) {
		t.Errorf("CloseThread: got err %v, want storage error", err)
	}
}
