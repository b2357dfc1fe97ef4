// Package handler provides HTTP request handlers for the product API.
// It implements the presentation layer of the application, handling HTTP requests
// and responses while delegating business logic to the service layer.
//
// Package handler 提供产品API的HTTP请求处理程序。
// 它实现了应用程序的表示层，处理HTTP请求和响应，同时将业务逻辑委托给服务层。
package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Humphrey-He/prodcat/internal/model"
	"github.com/Humphrey-He/prodcat/internal/query"
	"github.com/Humphrey-He/prodcat/internal/service"
	catalogerrors "github.com/Humphrey-He/prodcat/pkg/errors"
)

func init() {
	// Report validation failures under their JSON names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string                     `json:"error"`
	Fields []catalogerrors.FieldError `json:"fields,omitempty"`
}

// ProductHandler handles HTTP requests for products.
// It acts as an adapter between the HTTP layer and the service layer,
// translating HTTP requests into service calls and formatting responses.
//
// ProductHandler 处理产品的HTTP请求。
// 它充当HTTP层和服务层之间的适配器，将HTTP请求转换为服务调用并格式化响应。
type ProductHandler struct {
	service *service.ProductService
}

// NewProductHandler creates a new product handler with the given service.
//
// Parameters:
//   - service: The product service to use for business logic
//
// Returns:
//   - *ProductHandler: A new product handler instance
//
// NewProductHandler 使用给定的服务创建一个新的产品处理程序。
func NewProductHandler(service *service.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// Register mounts the product routes on r.
//
// Register 在r上挂载产品路由。
func (h *ProductHandler) Register(r gin.IRoutes) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/filter", h.FilterProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products", h.CreateProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.DELETE("/products/:id", h.DeleteProduct)
}

// ListProducts handles GET requests for the full product list.
//
// ListProducts 处理获取完整产品列表的GET请求。
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// FilterProducts handles GET requests with filter criteria in the query
// string. Omitted criteria impose no constraint.
//
// Parameters:
//   - c: The Gin context containing the HTTP request and response
//
// FilterProducts 处理带有查询字符串过滤条件的GET请求。省略的条件不施加约束。
//
// 参数:
//   - c: 包含HTTP请求和响应的Gin上下文
func (h *ProductHandler) FilterProducts(c *gin.Context) {
	// Parse filter from query parameters
	// 从查询参数解析过滤条件
	criteria, err := query.ParseCriteria(c.Request.URL.Query())
	if err != nil {
		writeError(c, err)
		return
	}

	products, err := h.service.FilterProducts(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct handles GET requests for a single product.
// It extracts the product ID from the URL path parameter and returns
// the product as JSON if found.
//
// GetProduct 处理获取单个产品的GET请求。
// 它从URL路径参数中提取产品ID，并在找到时以JSON格式返回产品。
func (h *ProductHandler) GetProduct(c *gin.Context) {
	// Get product ID from URL
	// 从URL获取产品ID
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct handles POST requests to create a new product.
// It answers 201 with the stored product and its Location.
//
// Parameters:
//   - c: The Gin context containing the HTTP request and response
//
// CreateProduct 处理创建新产品的POST请求。
// 成功时返回201、存储后的产品以及Location头。
//
// 参数:
//   - c: 包含HTTP请求和响应的Gin上下文
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	// Parse product from request body
	// 从请求体解析产品
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, bindError(err))
		return
	}

	created, err := h.service.CreateProduct(c.Request.Context(), in.Product())
	if err != nil {
		writeError(c, err)
		return
	}

	location := strings.TrimSuffix(c.Request.URL.Path, "/") + "/" + strconv.Itoa(created.ID)
	c.Header("Location", location)
	c.JSON(http.StatusCreated, created)
}

// UpdateProduct handles PUT requests to overwrite an existing product.
// The body must carry the same id as the path. It answers 204 on success.
//
// Parameters:
//   - c: The Gin context containing the HTTP request and response
//
// UpdateProduct 处理更新现有产品的PUT请求。请求体必须携带与路径相同的ID，成功时返回204。
//
// 参数:
//   - c: 包含HTTP请求和响应的Gin上下文
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	// Convert ID to int
	// 将ID转换为整数
	id, ok := pathID(c)
	if !ok {
		return
	}

	// Parse product from request body
	// 从请求体解析产品
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, bindError(err))
		return
	}

	if _, err := h.service.UpdateProduct(c.Request.Context(), id, in.Product()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DeleteProduct handles DELETE requests. Deleting an absent product still
// answers 204.
//
// DeleteProduct 处理删除产品的DELETE请求。删除不存在的产品同样返回204。
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CacheStats reports the cache statistics for monitoring.
//
// CacheStats 返回缓存统计信息用于监控。
func (h *ProductHandler) CacheStats(c *gin.Context) {
	stats, ok, err := h.service.CacheStats(c.Request.Context())
	switch {
	case err != nil:
		writeError(c, err)
	case !ok:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "cache is disabled"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"backend":     stats.Backend,
			"entry_count": stats.EntryCount,
			"hits":        stats.Hits,
			"misses":      stats.Misses,
			"evictions":   stats.Evictions,
			"size":        stats.Size,
			"hit_ratio":   stats.HitRatio(),
		})
	}
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, catalogerrors.Invalid("product id %q is not an integer", c.Param("id")))
		return 0, false
	}
	return id, true
}

// writeError answers with the status mapped from err. Messages of server
// errors are not exposed.
func writeError(c *gin.Context, err error) {
	status := catalogerrors.HTTPStatus(err)
	_ = c.Error(err)

	resp := ErrorResponse{Error: err.Error(), Fields: catalogerrors.Fields(err)}
	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		resp = ErrorResponse{Error: http.StatusText(status)}
	}
	c.AbortWithStatusJSON(status, resp)
}

// bindError turns a binding failure into an invalid-input error, keeping
// the field details of validator errors.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return catalogerrors.Invalid("malformed request body: %v", err)
	}

	ve := &catalogerrors.ValidationError{}
	for _, fe := range verrs {
		ve.Add(fe.Field(), fieldMessage(fe))
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}
