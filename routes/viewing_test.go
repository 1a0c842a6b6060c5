package routes

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"bodima-server/models"
	"bodima-server/services"
	"bodima-server/storage"
	"bodima-server/utils"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// buildViewingTestApp wires the viewing decision routes with the real verifier
// and role middleware against an in-memory database.
func buildViewingTestApp(t *testing.T) *iris.Application {
	t.Helper()
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Property{}, &models.PropertyFacilities{},
		&models.PropertyImage{}, &models.Conversation{},
		&models.Message{}, &models.ViewingRequest{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	prev := storage.DB
	storage.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		storage.DB = prev
	})

	app := iris.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} { return new(utils.AccessToken) })

	viewing := app.Party("/api/viewing")
	{
		viewing.Post("/{id:uint}/accept", accessTokenVerifierMiddleware, utils.OwnerOnlyMiddleware, AcceptViewingRequest)
		viewing.Post("/{id:uint}/decline", accessTokenVerifierMiddleware, utils.OwnerOnlyMiddleware, DeclineViewingRequest)
	}
	if err := app.Build(); err != nil {
		t.Fatalf("build app: %v", err)
	}
	return app
}

func signViewingTestToken(id uint, role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: id, Role: role})
	return string(token)
}

func TestAcceptViewingRequestRBAC(t *testing.T) {
	app := buildViewingTestApp(t)

	seeker := models.User{FullName: "Nimal", Email: "nimal@example.com", Role: "seeker"}
	owner := models.User{FullName: "Kamala", Email: "kamala@example.com", Role: "owner"}
	storage.DB.Create(&seeker)
	storage.DB.Create(&owner)

	property := models.Property{OwnerID: owner.ID, Type: "single_room", TotalCapacity: 1,
		CostType: "per_person", Cost: 12000, District: "Colombo"}
	storage.DB.Create(&property)

	conversation, err := services.FindOrCreateConversation(seeker.ID, owner.ID, &property.ID)
	if err != nil {
		t.Fatalf("create conversation: %v", err)
	}
	request, err := services.CreateViewingRequest(conversation.ID, seeker.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create viewing request: %v", err)
	}

	url := fmt.Sprintf("/api/viewing/%d/accept", request.ID)

	// No token
	req := httptest.NewRequest(http.MethodPost, url, nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK {
		t.Fatalf("expected non-200 without token, got %d", resp.Code)
	}

	// Seeker role -> 403
	req2 := httptest.NewRequest(http.MethodPost, url, nil)
	req2.Header.Set("Authorization", "Bearer "+signViewingTestToken(seeker.ID, "seeker"))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seeker role, got %d", resp2.Code)
	}

	// Owner -> 200 and status flips
	req3 := httptest.NewRequest(http.MethodPost, url, nil)
	req3.Header.Set("Authorization", "Bearer "+signViewingTestToken(owner.ID, "owner"))
	resp3 := httptest.NewRecorder()
	app.ServeHTTP(resp3, req3)
	if resp3.Code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d: %s", resp3.Code, resp3.Body.String())
	}

	var reloaded models.ViewingRequest
	storage.DB.First(&reloaded, request.ID)
	if reloaded.Status != models.ViewingAccepted {
		t.Fatalf("expected accepted status, got %q", reloaded.Status)
	}

	// Second decision -> 409
	req4 := httptest.NewRequest(http.MethodPost, url, nil)
	req4.Header.Set("Authorization", "Bearer "+signViewingTestToken(owner.ID, "owner"))
	resp4 := httptest.NewRecorder()
	app.ServeHTTP(resp4, req4)
	if resp4.Code != http.StatusConflict {
		t.Fatalf("expected 409 on second decision, got %d", resp4.Code)
	}
}
