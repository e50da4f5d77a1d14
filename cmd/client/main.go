package main

import (
	"bufio"
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/adapter/repository"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/firebase"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/notify"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/infrastructure/realtime"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/internal/usecase"
	"github.com/PraiseTechzw/campus-market-mvp-sub001/pkg/config"
)

type logNoticeSink struct{}

func (logNoticeSink) TransientNotice(message string) {
	log.Printf("Notice: %s", message)
}

type logObserver struct{}

func (logObserver) UnreadBadgesChanged(conversations, notifications int) {
	log.Printf("Badges: %d unread conversations, %d unread notifications", conversations, notifications)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}

		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", serviceAccountPath)
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	authClient := firebase.NewAuthClient(fbAuth, cfg.FirebaseAPIKey)

	idToken := os.Getenv("FIREBASE_ID_TOKEN")
	if idToken == "" {
		// Local development shortcut: mint a token for a known UID.
		devUID := os.Getenv("DEV_UID")
		if devUID == "" {
			log.Fatalf("FIREBASE_ID_TOKEN or DEV_UID is required")
		}
		idToken, err = authClient.GenerateDevToken(ctx, devUID)
		if err != nil {
			log.Fatalf("Failed to mint dev token: %v", err)
		}
	}

	userID, err := authClient.SignIn(ctx, idToken)
	if err != nil {
		log.Fatalf("Failed to sign in: %v", err)
	}
	log.Printf("Signed in as %s", userID)

	convRepo := repository.NewFirestoreConversationRepository(firestoreClient, cfg.SnapshotPageSize)
	notificationRepo := repository.NewFirestoreNotificationRepository(firestoreClient)
	productRepo := repository.NewFirestoreProductRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	channel := realtime.NewChannel(cfg.RealtimeURL)
	if err := channel.Connect(ctx); err != nil {
		log.Fatalf("Failed to connect realtime channel: %v", err)
	}

	store := usecase.NewConversationStore(convRepo, userID)
	tracker := usecase.NewReadStateTracker(store, notificationRepo)
	tracker.AddObserver(logObserver{})

	dispatcher := notify.NewLogDispatcher()

	coordinator := usecase.NewSyncCoordinator(store, tracker, channel, convRepo, userRepo, authClient, dispatcher, logNoticeSink{})
	if err := coordinator.Start(ctx); err != nil {
		log.Fatalf("Failed to start sync coordinator: %v", err)
	}

	messagingUseCase := usecase.NewMessagingUseCase(convRepo, productRepo, authClient, coordinator, store)
	notificationUseCase := usecase.NewNotificationUseCase(notificationRepo, authClient, tracker)

	log.Printf("Sync engine running; type 'help' for commands, Ctrl+C to stop")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go commandLoop(ctx, coordinator, store, messagingUseCase, notificationUseCase, stop)

	<-stop

	coordinator.Stop()
	if err := authClient.SignOut(ctx); err != nil {
		log.Printf("Sign out failed: %v", err)
	}
}

// commandLoop is a small dev console over the sync engine.
func commandLoop(
	ctx context.Context,
	coordinator *usecase.SyncCoordinator,
	store *usecase.ConversationStore,
	messaging *usecase.MessagingUseCase,
	notifications *usecase.NotificationUseCase,
	stop chan<- os.Signal,
) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "help":
			log.Printf("commands: ls, open <id>, close, send <id> <text>, read <id>, fg, bg, notifs, quit")

		case "ls":
			for _, conv := range store.ListConversations() {
				log.Printf("%s  last=%q  unread=%v", conv.ID, conv.LastMessage, conv.UnreadFor(store.ViewerID()))
			}

		case "open":
			if len(fields) < 2 {
				continue
			}
			coordinator.OpenConversation(fields[1])

		case "close":
			coordinator.CloseConversation()

		case "send":
			if len(fields) < 3 {
				continue
			}
			content := strings.Join(fields[2:], " ")
			if _, err := messaging.SendMessage(ctx, usecase.SendMessageInput{
				ConversationID: fields[1],
				Content:        content,
			}); err != nil {
				log.Printf("Send failed: %v", err)
			}

		case "read":
			if len(fields) < 2 {
				continue
			}
			messaging.MarkConversationRead(fields[1])

		case "fg":
			coordinator.SetForeground(true)

		case "bg":
			coordinator.SetForeground(false)

		case "notifs":
			items, err := notifications.ListNotifications(ctx, 20)
			if err != nil {
				log.Printf("List notifications failed: %v", err)
				continue
			}
			for _, n := range items {
				log.Printf("%s  [%s] %s: %s  read=%v", n.ID, n.Type, n.Title, n.Body, n.Read)
			}

		case "quit":
			stop <- os.Interrupt
			return

		default:
			log.Printf("Unknown command %q", fields[0])
		}
	}
}
