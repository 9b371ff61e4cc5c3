package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"

	"telejenkins/cdn"
	"telejenkins/finalizer"
	"telejenkins/jenkins"
	"telejenkins/notification"
	"telejenkins/relay-server/auth"
	"telejenkins/shared/config"
	"telejenkins/shared/kafka"
	"telejenkins/shared/message"
	"telejenkins/shared/model"
	"telejenkins/shared/response"
	"telejenkins/telegram"
)

type TriggerBuildRequest struct {
	Username         string `json:"username"`
	Password         string `json:"password"`
	BranchName       string `json:"branchName"`
	BuildType        string `json:"buildType"`
	BuildVariant     string `json:"buildVariant"`
	Message          string `json:"message,omitempty"`
	Token            string `json:"token,omitempty"`
	DistributionType string `json:"distributionType,omitempty"`
}

type NotifyRequest struct {
	JobName     string `json:"jobName"`
	BranchURL   string `json:"branchUrl"`
	BuildStatus string `json:"buildStatus"`
	BuildNumber string `json:"buildNumber"`
	Message     string `json:"message,omitempty"`
}

type RequestUploadRequest struct {
	BuildType   string `json:"buildType"`
	FileName    string `json:"fileName"`
	BuildNumber string `json:"buildNumber"`
}

type UploadCompleteRequest struct {
	BuildURL         string `json:"buildUrl"`
	BuildType        string `json:"buildType"`
	ObjectKey        string `json:"objectKey"`
	BundleIdentifier string `json:"bundleIdentifier"`
	BundleVersion    string `json:"bundleVersion"`
	BuildNumber      string `json:"buildNumber"`
	Title            string `json:"title"`
	Message          string `json:"message,omitempty"`
	BuildEnvironment string `json:"buildEnvironment,omitempty"`
}

// RelayServer holds every collaborator a handler needs. All of them
// are constructed once in main and passed in explicitly.
type RelayServer struct {
	cfg        *config.Config
	tokens     *auth.TokenService
	revoker    auth.Revoker
	cdnManager *cdn.Manager
	bot        *telegram.Bot
	formatter  *telegram.Formatter
	finalizer  *finalizer.Finalizer
	hub        *notification.Hub
	producer   *kafka.Producer
}

func (s *RelayServer) HandleRoot(w http.ResponseWriter, r *http.Request) {
	response.Success(w, map[string]interface{}{}, response.CodeRunning, "Tele-Jenkins relay is running")
}

func (s *RelayServer) HandleTriggerBuild(w http.ResponseWriter, r *http.Request) {
	log.Println("🏗️ Received trigger-build request")

	var req TriggerBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid trigger-build request body: %v", err)
		response.ValidationError(w, response.CodeTriggerInvalid, "The request body is invalid.")
		return
	}

	if req.Username == "" || req.Password == "" || req.BranchName == "" {
		log.Println("❌ Trigger-build missing username, password or branch name")
		response.ValidationError(w, response.CodeTriggerInvalid, "username, password and branchName are required")
		return
	}

	buildType, err := model.ParseBuildType(req.BuildType)
	if err != nil {
		log.Printf("❌ Invalid build type: %q", req.BuildType)
		response.ValidationError(w, response.CodeTriggerInvalid, "Invalid build type")
		return
	}

	buildVariant, err := model.ParseBuildVariant(req.BuildVariant)
	if err != nil {
		log.Printf("❌ Invalid build variant: %q", req.BuildVariant)
		response.ValidationError(w, response.CodeTriggerInvalid, "Invalid build variant")
		return
	}

	sessionToken, err := s.tokens.GenerateToken(req.Username, s.cfg.TokenTTL)
	if err != nil {
		log.Printf("❌ Failed to issue session token: %v", err)
		response.Error(w, response.CodeTriggerError, "An error occurred while triggering the build.")
		return
	}

	client := jenkins.NewClient(s.cfg.JenkinsURL, req.Username, req.Password)

	crumb, err := client.FetchCrumb(r.Context())
	if err != nil {
		log.Printf("❌ Crumb fetch failed: %v", err)
		response.Error(w, response.CodeTriggerError, "An error occurred while triggering the build.")
		return
	}

	parameters := map[string]string{
		"CUSTOM_BRANCH": req.BranchName,
		"BUILD_TYPE":    string(buildType),
		"BUILD_VARIANT": string(buildVariant),
		"MESSAGE":       req.Message,
		"token":         req.Token,
		"BEARER_TOKEN":  sessionToken,
	}
	if req.DistributionType != "" {
		parameters["DISTRIBUTION_TYPE"] = req.DistributionType
	}

	if err := client.TriggerBuild(r.Context(), crumb, s.cfg.JenkinsJobName, parameters); err != nil {
		log.Printf("❌ Build trigger failed: %v", err)
		response.Error(w, response.CodeTriggerError, "An error occurred while triggering the build.")
		return
	}

	log.Printf("✅ Triggered %s/%s build on branch %s", s.cfg.JenkinsJobName, buildVariant, req.BranchName)

	if err := s.producer.SendMessage(r.Context(), "build-triggers", req.BranchName, message.TriggerRequestMessage{
		JobName:      s.cfg.JenkinsJobName,
		BranchName:   req.BranchName,
		BuildType:    string(buildType),
		BuildVariant: string(buildVariant),
		CreatedAt:    time.Now(),
	}); err != nil {
		log.Printf("⚠️ Failed to publish trigger event: %v", err)
	}

	response.Success(w, map[string]interface{}{
		"sessionToken": sessionToken,
	}, response.CodeTriggerSuccess, "Jenkins build triggered successfully")
}

func (s *RelayServer) HandleNotify(w http.ResponseWriter, r *http.Request) {
	log.Println("📣 Received notify request")

	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid notify request body: %v", err)
		response.ValidationError(w, response.CodeArtifactsInvalid, "The request body is invalid.")
		return
	}

	if req.JobName == "" || req.BranchURL == "" || req.BuildNumber == "" {
		response.ValidationError(w, response.CodeArtifactsInvalid, "jobName, branchUrl and buildNumber are required")
		return
	}

	buildStatus, err := model.ParseBuildStatus(req.BuildStatus)
	if err != nil {
		log.Printf("❌ Invalid build status: %q", req.BuildStatus)
		response.ValidationError(w, response.CodeArtifactsInvalid, "Invalid build status")
		return
	}

	text := s.formatter.BuildStatusNotification(req.JobName, req.BranchURL, string(buildStatus), req.BuildNumber, req.Message)
	if err := s.bot.SendMessage(text); err != nil {
		log.Printf("❌ Notify dispatch failed: %v", err)
		response.Error(w, response.CodeNotifyError, "An error occurred while processing the notification.")
		return
	}

	statusMsg := message.BuildStatusMessage{
		JobName:     req.JobName,
		BranchURL:   req.BranchURL,
		BuildNumber: req.BuildNumber,
		Status:      string(buildStatus),
		Message:     req.Message,
		UpdatedAt:   time.Now(),
	}
	s.hub.BroadcastStatus(statusMsg)
	if err := s.producer.SendMessage(r.Context(), "build-status", req.BuildNumber, statusMsg); err != nil {
		log.Printf("⚠️ Failed to publish status event: %v", err)
	}

	response.Success(w, map[string]interface{}{}, response.CodeNotifySuccess, "Jenkins notification sent successfully")
}

func (s *RelayServer) HandleRequestUpload(w http.ResponseWriter, r *http.Request) {
	log.Println("🔗 Received request-upload request")

	var req RequestUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request-upload request body: %v", err)
		response.ValidationError(w, response.CodeArtifactsInvalid, "The request body is invalid.")
		return
	}

	if _, err := model.ParseBuildType(req.BuildType); err != nil {
		log.Printf("❌ Invalid build type: %q", req.BuildType)
		response.ValidationError(w, response.CodeArtifactsInvalid, "Invalid build type")
		return
	}
	if req.FileName == "" || req.BuildNumber == "" {
		response.ValidationError(w, response.CodeArtifactsInvalid, "fileName and buildNumber are required")
		return
	}

	packageDesc, metadataDesc, err := s.cdnManager.RequestUpload(r.Context(), req.FileName, req.BuildNumber, s.cfg.PresignExpiry)
	if err != nil {
		log.Printf("❌ Presign failed for build %s: %v", req.BuildNumber, err)
		response.Error(w, response.CodeUploadRequestError, "An error occurred while preparing the upload.")
		return
	}

	log.Printf("✅ Issued upload session for build %s (%s)", req.BuildNumber, req.FileName)
	response.Success(w, map[string]interface{}{
		"packageObject":  packageDesc,
		"metadataObject": metadataDesc,
	}, response.CodeUploadRequestSuccess, "Presigned URL generated successfully")
}

func (s *RelayServer) HandleUploadComplete(w http.ResponseWriter, r *http.Request) {
	log.Println("📦 Received upload-complete request")

	var req UploadCompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid upload-complete request body: %v", err)
		response.ValidationError(w, response.CodeArtifactsInvalid, "The request body is invalid.")
		return
	}

	buildType, err := model.ParseBuildType(req.BuildType)
	if err != nil {
		log.Printf("❌ Invalid build type: %q", req.BuildType)
		response.ValidationError(w, response.CodeArtifactsInvalid, "Invalid build type")
		return
	}
	if req.BuildURL == "" || req.BuildNumber == "" || req.ObjectKey == "" {
		response.ValidationError(w, response.CodeArtifactsInvalid, "buildUrl, objectKey and buildNumber are required")
		return
	}

	ev := finalizer.Event{
		BuildURL:         req.BuildURL,
		BuildType:        buildType,
		ObjectKey:        req.ObjectKey,
		BundleIdentifier: req.BundleIdentifier,
		BundleVersion:    req.BundleVersion,
		BuildNumber:      req.BuildNumber,
		Title:            req.Title,
		Message:          req.Message,
		BuildEnvironment: req.BuildEnvironment,
	}

	if _, err := s.finalizer.Finalize(r.Context(), ev); err != nil {
		log.Printf("❌ Finalization failed for build %s: %v", req.BuildNumber, err)
		response.Error(w, response.CodeUploadCompleteError, "An error occurred while completing the upload.")
		return
	}

	response.Success(w, map[string]interface{}{}, response.CodeUploadCompleteSuccess, "Upload completion processed successfully")
}

// HandleUploadArtifacts is the legacy direct-upload path: the CI job
// posts the package and metadata bytes through the relay instead of
// using a presigned session.
func (s *RelayServer) HandleUploadArtifacts(w http.ResponseWriter, r *http.Request) {
	log.Println("📤 Received upload-artifacts request")

	if err := r.ParseMultipartForm(256 << 20); err != nil {
		log.Printf("❌ Failed to parse multipart form: %v", err)
		response.ValidationError(w, response.CodeArtifactsInvalid, "The request body is invalid.")
		return
	}

	buildType, err := model.ParseBuildType(r.FormValue("buildType"))
	if err != nil {
		response.ValidationError(w, response.CodeArtifactsInvalid, "Invalid build type")
		return
	}

	buildStatus, err := model.ParseBuildStatus(r.FormValue("buildStatus"))
	if err != nil {
		response.ValidationError(w, response.CodeArtifactsInvalid, "Invalid build status")
		return
	}

	buildNumber := r.FormValue("buildNumber")
	if buildNumber == "" {
		response.ValidationError(w, response.CodeArtifactsInvalid, "buildNumber is required")
		return
	}

	// Failed builds never reach the storage or notification branches
	// that assume an uploaded artifact exists.
	if buildStatus != model.BuildStatusSuccess {
		log.Printf("⚠️ Build %s not successful (%s), skipping upload", buildNumber, buildStatus)
		text := s.formatter.UploadSkipped(s.cfg.PipelineName, buildNumber, string(buildStatus))
		if err := s.bot.SendMessage(text); err != nil {
			log.Printf("⚠️ Failed to send skip notification: %v", err)
		}
		response.Success(w, map[string]interface{}{}, response.CodeArtifactsSkipped, "Build not successful, upload skipped")
		return
	}

	buildFile, buildHeader, err := r.FormFile("buildFile")
	if err != nil {
		response.ValidationError(w, response.CodeArtifactsInvalid, "buildFile is required")
		return
	}
	defer buildFile.Close()

	metadataFile, _, err := r.FormFile("metadataFile")
	if err != nil {
		response.ValidationError(w, response.CodeArtifactsInvalid, "metadataFile is required")
		return
	}
	defer metadataFile.Close()

	buildBytes, err := io.ReadAll(buildFile)
	if err != nil {
		log.Printf("❌ Failed to read build file: %v", err)
		response.Error(w, response.CodeUploadRequestError, "An error occurred while uploading artifacts.")
		return
	}

	metadataBytes, err := io.ReadAll(metadataFile)
	if err != nil {
		log.Printf("❌ Failed to read metadata file: %v", err)
		response.Error(w, response.CodeUploadRequestError, "An error occurred while uploading artifacts.")
		return
	}

	buildKey := s.cdnManager.ObjectKey(buildHeader.Filename, buildNumber)
	metadataKey := s.cdnManager.ObjectKey("metadata.json", buildNumber)

	urls, err := s.cdnManager.UploadMultipleFiles(r.Context(), []cdn.File{
		{Key: buildKey, Body: buildBytes, ContentType: http.DetectContentType(buildBytes)},
		{Key: metadataKey, Body: metadataBytes, ContentType: "application/json"},
	})
	if err != nil {
		log.Printf("❌ Artifact upload failed for build %s: %v", buildNumber, err)
		response.Error(w, response.CodeUploadRequestError, "An error occurred while uploading artifacts.")
		return
	}
	buildFileURL, metadataFileURL := urls[0], urls[1]

	ev := finalizer.Event{
		BuildURL:         buildFileURL,
		BuildType:        buildType,
		ObjectKey:        buildKey,
		BundleIdentifier: r.FormValue("bundleIdentifier"),
		BundleVersion:    r.FormValue("bundleVersion"),
		BuildNumber:      buildNumber,
		Title:            r.FormValue("title"),
		Message:          r.FormValue("message"),
		BuildEnvironment: r.FormValue("buildEnvironment"),
	}

	manifestURL, err := s.finalizer.Finalize(r.Context(), ev)
	if err != nil {
		log.Printf("❌ Finalization failed for build %s: %v", buildNumber, err)
		response.Error(w, response.CodeUploadRequestError, "An error occurred while uploading artifacts.")
		return
	}

	data := map[string]interface{}{
		"buildFileUrl":    buildFileURL,
		"metadataFileUrl": metadataFileURL,
	}
	if manifestURL != "" {
		data["manifestFileUrl"] = manifestURL
	}
	response.Success(w, data, response.CodeArtifactsSuccess, "Artifacts uploaded successfully")
}

func (s *RelayServer) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		response.Error(w, response.CodeTokenRevoked, "No session token in request context")
		return
	}

	if err := s.revoker.Revoke(r.Context(), token); err != nil {
		log.Printf("❌ Failed to revoke token: %v", err)
		response.Error(w, response.CodeTokenRevoked, "Failed to revoke token")
		return
	}

	log.Println("✅ Session token revoked")
	response.Success(w, map[string]interface{}{}, response.CodeOK, "Token revoked")
}

func (s *RelayServer) HandleClearRevocations(w http.ResponseWriter, r *http.Request) {
	if err := s.revoker.Clear(r.Context()); err != nil {
		log.Printf("❌ Failed to clear revocations: %v", err)
		response.Error(w, response.CodeTokenRevoked, "Failed to clear revocations")
		return
	}

	log.Println("✅ Revocation set cleared")
	response.Success(w, map[string]interface{}{}, response.CodeOK, "Revocation set cleared")
}

// Router wires every route; session-scoped routes sit behind the
// token middleware.
func (s *RelayServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.HandleRoot).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/ws", s.hub.HandleWebSocket)

	r.HandleFunc("/jenkins/job/trigger-build", s.HandleTriggerBuild).Methods("POST")
	r.HandleFunc("/jenkins/upload-artifacts", s.HandleUploadArtifacts).Methods("POST")

	session := r.PathPrefix("/jenkins/session").Subrouter()
	session.Use(auth.Middleware(s.tokens, s.revoker))
	session.HandleFunc("/notify", s.HandleNotify).Methods("POST")
	session.HandleFunc("/request-upload", s.HandleRequestUpload).Methods("POST")
	session.HandleFunc("/upload-complete", s.HandleUploadComplete).Methods("POST")
	session.HandleFunc("/revoke", s.HandleRevoke).Methods("POST")
	session.HandleFunc("/clear-revocations", s.HandleClearRevocations).Methods("POST")

	return r
}

func main() {
	log.Println("🚀 Starting Tele-Jenkins relay...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	var revoker auth.Revoker = auth.NewMemoryRevoker()
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
		})
		defer redisClient.Close()

		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("❌ Failed to connect to Redis: %v", err)
		}
		log.Println("✅ Redis connection verified, using shared revocation set")
		revoker = auth.NewRedisRevoker(redisClient)
	}

	var producer *kafka.Producer
	if cfg.KafkaBootstrapServers != "" {
		producer, err = kafka.NewProducer(cfg.KafkaBootstrapServers)
		if err != nil {
			log.Fatalf("❌ Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		log.Println("✅ Kafka producer created")
	}

	tokens := auth.NewTokenService(cfg.JWTSecret)
	formatter := telegram.NewFormatter(telegram.ResolveParseMode(cfg.TelegramParseMode))
	bot, err := telegram.NewBot(cfg.TelegramAPIKey, cfg.TelegramChannelID, formatter.ParseMode())
	if err != nil {
		log.Fatalf("❌ Invalid Telegram channel configuration: %v", err)
	}
	hub := notification.NewHub()

	cdnManager := cdn.NewManager(cdn.Config{
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
		Region:          cfg.S3Region,
		Bucket:          cfg.BucketName,
		BasePath:        cfg.S3Path,
		PipelineName:    cfg.PipelineName,
		CdnURL:          cfg.CdnURL,
	})

	fin := finalizer.New(cdnManager, bot, formatter, cfg.PipelineName)
	fin.OnCompleted(func(msg message.BuildCompletionMessage) {
		hub.BroadcastCompletion(msg)
		if err := producer.SendMessage(context.Background(), "build-completions", msg.BuildNumber, msg); err != nil {
			log.Printf("⚠️ Failed to publish completion event: %v", err)
		}
	})

	server := &RelayServer{
		cfg:        cfg,
		tokens:     tokens,
		revoker:    revoker,
		cdnManager: cdnManager,
		bot:        bot,
		formatter:  formatter,
		finalizer:  fin,
		hub:        hub,
		producer:   producer,
	}

	log.Printf("🌐 Tele-Jenkins relay is running on port %s...", cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, server.Router()))
}
