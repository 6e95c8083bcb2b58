package controller

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docuchat-be/internal/dto"
	"docuchat-be/internal/pkg/serverutils"
	"docuchat-be/internal/service"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetAllSessions(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	UploadImage(ctx *fiber.Ctx) error
	SendChat(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatbotController struct {
	chatbotService service.IChatbotService
	imageDir       string
}

func NewChatbotController(chatbotService service.IChatbotService, imageDir string) IChatbotController {
	return &chatbotController{chatbotService: chatbotService, imageDir: imageDir}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chatbot/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.GetAllSessions)
	h.Get("/session/:sessionId/history", c.GetChatHistory)
	h.Post("/image", c.UploadImage)
	h.Post("/chat", c.SendChat)
	h.Delete("/session", c.DeleteSession)
}

func (c *chatbotController) CreateSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatbotService.CreateSession(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatbotController) GetAllSessions(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	res, err := c.chatbotService.GetAllSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *chatbotController) GetChatHistory(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	sessionId, err := uuid.Parse(ctx.Params("sessionId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid session id")
	}

	res, err := c.chatbotService.GetChatHistory(ctx.Context(), userId, sessionId)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatbotController) UploadImage(ctx *fiber.Ctx) error {
	if _, err := currentUserId(ctx); err != nil {
		return err
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing image field")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	imageId, err := saveChatImage(c.imageDir, data)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success upload image", dto.UploadChatImageResponse{ImageId: imageId}))
}

func (c *chatbotController) SendChat(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	request := new(dto.SendChatRequest)
	if err := ctx.BodyParser(request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(request); err != nil {
		return err
	}

	if request.ImageId != "" {
		path, err := resolveChatImage(c.imageDir, request.ImageId)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		request.ImagePath = path
	}

	res, err := c.chatbotService.SendChat(ctx.Context(), userId, request)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	userId, err := currentUserId(ctx)
	if err != nil {
		return err
	}

	request := new(dto.DeleteSessionRequest)
	if err := ctx.BodyParser(request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := serverutils.ValidateRequest(request); err != nil {
		return err
	}

	if err := c.chatbotService.DeleteSession(ctx.Context(), userId, request); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

// chatImageName constrains image ids to the filenames saveChatImage issues.
var chatImageName = regexp.MustCompile(`^[0-9a-f]{32}\.(png|jpg|gif|webp)$`)

var chatImageExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// saveChatImage sniffs the payload's content type, stores it under dir with a
// server-generated name, and returns that name as the image id.
func saveChatImage(dir string, data []byte) (string, error) {
	ext, ok := chatImageExt[http.DetectContentType(data)]
	if !ok {
		return "", fmt.Errorf("unsupported image type")
	}

	name := strings.ReplaceAll(uuid.New().String(), "-", "") + ext
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// resolveChatImage maps an image id back to its stored path. Ids that are not
// server-issued filenames are rejected so clients can never name arbitrary
// files.
func resolveChatImage(dir string, imageId string) (string, error) {
	if !chatImageName.MatchString(imageId) {
		return "", fmt.Errorf("invalid image id")
	}

	path := filepath.Join(dir, imageId)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("image not found")
	}
	return path, nil
}
