package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/AppleCherryJaM/reenbit-tech-task-be/db"
	"github.com/AppleCherryJaM/reenbit-tech-task-be/testutil"
)

func TestFindOrCreateUserProvisionsStarterChats(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	providerID := uuid.New().String()
	u, err := db.FindOrCreateUser(ctx, database, "google", providerID, providerID+"@example.com", "Alice Example", "https://example.com/a.png")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if u.ID == "" {
		t.Fatal("user id missing")
	}

	chats, err := db.GetAllChats(ctx, database, u.ID, "")
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("expected 3 starter chats, got %d", len(chats))
	}

	// Second sign-in resolves to the same account without new chats.
	again, err := db.FindOrCreateUser(ctx, database, "google", providerID, providerID+"@example.com", "Alice Example", "")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if again.ID != u.ID {
		t.Fatalf("expected same user, got %s vs %s", again.ID, u.ID)
	}
	chats, err = db.GetAllChats(ctx, database, u.ID, "")
	if err != nil {
		t.Fatalf("list chats again: %v", err)
	}
	if len(chats) != 3 {
		t.Fatalf("chat count changed on repeat sign-in: %d", len(chats))
	}
}

func TestChatOwnershipIsEnforced(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	ownerID := uuid.New().String()
	owner, err := db.FindOrCreateUser(ctx, database, "google", ownerID, ownerID+"@example.com", "Owner", "")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	strangerID := uuid.New().String()
	stranger, err := db.FindOrCreateUser(ctx, database, "google", strangerID, strangerID+"@example.com", "Stranger", "")
	if err != nil {
		t.Fatalf("stranger: %v", err)
	}

	chat, err := db.CreateChat(ctx, database, owner.ID, "Ada", "Lovelace")
	if err != nil {
		t.Fatalf("create chat: %v", err)
	}

	if _, err := db.UpdateChat(ctx, database, stranger.ID, chat.ID, "X", "Y"); !errors.Is(err, db.ErrAccessDenied) {
		t.Fatalf("update by stranger: %v", err)
	}
	if err := db.DeleteChat(ctx, database, stranger.ID, chat.ID); !errors.Is(err, db.ErrAccessDenied) {
		t.Fatalf("delete by stranger: %v", err)
	}
	if _, err := db.GetChatMessages(ctx, database, stranger.ID, chat.ID); !errors.Is(err, db.ErrAccessDenied) {
		t.Fatalf("read by stranger: %v", err)
	}

	if _, err := db.UpdateChat(ctx, database, owner.ID, uuid.New().String(), "X", "Y"); !errors.Is(err, db.ErrNotFound) {
		t.Fatalf("update missing chat: %v", err)
	}

	ok, err := db.ValidateChatOwnership(ctx, database, owner.ID, chat.ID)
	if err != nil || !ok {
		t.Fatalf("owner should own chat: ok=%v err=%v", ok, err)
	}
	ok, err = db.ValidateChatOwnership(ctx, database, stranger.ID, chat.ID)
	if err != nil || ok {
		t.Fatalf("stranger must not own chat: ok=%v err=%v", ok, err)
	}
}

func TestMessagesRoundTrip(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	providerID := uuid.New().String()
	user, err := db.FindOrCreateUser(ctx, database, "google", providerID, providerID+"@example.com", "Writer", "")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	chat, err := db.CreateChat(ctx, database, user.ID, "Grace", "Hopper")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	first, err := db.CreateMessage(ctx, database, "hello there", chat.ID, &user.ID, db.MessageTypeUser)
	if err != nil {
		t.Fatalf("user message: %v", err)
	}
	if first.User == nil || first.User.ID != user.ID {
		t.Fatalf("user message should carry its author: %+v", first.User)
	}
	second, err := db.CreateMessage(ctx, database, "a quote — someone", chat.ID, nil, db.MessageTypeAuto)
	if err != nil {
		t.Fatalf("auto message: %v", err)
	}
	if second.UserID != nil {
		t.Fatal("auto message must have no author")
	}

	msgs, err := db.GetChatMessages(ctx, database, user.ID, chat.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != first.ID || msgs[1].ID != second.ID {
		t.Fatal("messages out of creation order")
	}

	chats, err := db.GetAllChats(ctx, database, user.ID, "Hopper")
	if err != nil {
		t.Fatalf("search chats: %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("search expected 1 chat, got %d", len(chats))
	}
	if chats[0].LastMessage == nil || chats[0].LastMessage.ID != second.ID {
		t.Fatalf("last message not attached: %+v", chats[0].LastMessage)
	}
}

func TestDeleteChatCascadesMessages(t *testing.T) {
	database := testutil.SetupTestDB(t)
	ctx := context.Background()

	providerID := uuid.New().String()
	user, err := db.FindOrCreateUser(ctx, database, "google", providerID, providerID+"@example.com", "Owner", "")
	if err != nil {
		t.Fatalf("user: %v", err)
	}
	chat, err := db.CreateChat(ctx, database, user.ID, "Tmp", "Chat")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if _, err := db.CreateMessage(ctx, database, "bye", chat.ID, &user.ID, db.MessageTypeUser); err != nil {
		t.Fatalf("message: %v", err)
	}

	if err := db.DeleteChat(ctx, database, user.ID, chat.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var count int
	if err := database.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE chat_id=$1`, chat.ID).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("messages survived chat deletion: %d", count)
	}
}

func TestCreateMessagePairingRules(t *testing.T) {
	ctx := context.Background()
	authorID := uuid.New().String()

	// Validation runs before any query, so a nil handle is fine here.
	if _, err := db.CreateMessage(ctx, nil, "text", "chat", &authorID, db.MessageTypeAuto); !errors.Is(err, db.ErrValidation) {
		t.Fatalf("auto with author: %v", err)
	}
	if _, err := db.CreateMessage(ctx, nil, "text", "chat", nil, db.MessageTypeUser); !errors.Is(err, db.ErrValidation) {
		t.Fatalf("user without author: %v", err)
	}
	if _, err := db.CreateMessage(ctx, nil, "  ", "chat", &authorID, db.MessageTypeUser); !errors.Is(err, db.ErrValidation) {
		t.Fatalf("blank text: %v", err)
	}
	if _, err := db.CreateMessage(ctx, nil, "text", "chat", &authorID, "weird"); !errors.Is(err, db.ErrValidation) {
		t.Fatalf("unknown type: %v", err)
	}
}

func TestCreateChatValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := db.CreateChat(ctx, nil, "owner", " ", "Last"); !errors.Is(err, db.ErrValidation) {
		t.Fatalf("blank first name: %v", err)
	}
	if _, err := db.CreateChat(ctx, nil, "owner", "First", ""); !errors.Is(err, db.ErrValidation) {
		t.Fatalf("blank last name: %v", err)
	}
}
