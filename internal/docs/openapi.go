// Package docs builds the OpenAPI 3 document describing the catalog API.
package docs

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
)

// BearerScheme names the security scheme guarding the product routes.
const BearerScheme = "bearerAuth"

const (
	productRef = "#/components/schemas/Product"
	inputRef   = "#/components/schemas/ProductInput"
	errorRef   = "#/components/schemas/Error"
)

// Options selects what the document advertises.
type Options struct {
	Title    string
	Version  string
	BasePath string
	// Secured adds the bearer requirement to every product operation.
	Secured bool
}

// Build returns the OpenAPI document of the product routes.
func Build(opts Options) *openapi3.T {
	if opts.Title == "" {
		opts.Title = "Product Catalog API"
	}
	if opts.Version == "" {
		opts.Version = "v1"
	}

	product := productSchema()
	input := inputSchema()
	errSchema := errorSchema()

	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   opts.Title,
			Version: opts.Version,
		},
		Paths: openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				"Product":      openapi3.NewSchemaRef("", product),
				"ProductInput": openapi3.NewSchemaRef("", input),
				"Error":        openapi3.NewSchemaRef("", errSchema),
			},
			SecuritySchemes: openapi3.SecuritySchemes{
				BearerScheme: &openapi3.SecuritySchemeRef{
					Value: openapi3.NewJWTSecurityScheme().WithDescription("JWT Authorization header using the Bearer scheme"),
				},
			},
		},
	}
	if opts.BasePath != "" {
		doc.Servers = openapi3.Servers{{URL: opts.BasePath}}
	}

	productRefs := openapi3.NewSchemaRef(productRef, product)
	listRefs := openapi3.NewSchemaRef("", openapi3.NewArraySchema().WithItems(product))
	inputRefs := openapi3.NewSchemaRef(inputRef, input)
	errorRefs := openapi3.NewSchemaRef(errorRef, errSchema)

	idParam := &openapi3.ParameterRef{Value: openapi3.NewPathParameter("id").WithSchema(openapi3.NewIntegerSchema())}
	body := &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(inputRefs)}

	jsonResponse := func(desc string, ref *openapi3.SchemaRef) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc).WithJSONSchemaRef(ref)}
	}
	emptyResponse := func(desc string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().WithDescription(desc)}
	}
	badRequest := jsonResponse("Invalid input", errorRefs)
	notFound := jsonResponse("Product not found", errorRefs)

	op := func(id, summary string, responses openapi3.Responses, params ...*openapi3.ParameterRef) *openapi3.Operation {
		o := &openapi3.Operation{}
		o.OperationID = id
		o.Summary = summary
		o.Tags = []string{"products"}
		o.Parameters = params
		if opts.Secured {
			responses["401"] = jsonResponse("Missing or invalid bearer token", errorRefs)
			responses["403"] = jsonResponse("Required role missing", errorRefs)
			o.Security = &openapi3.SecurityRequirements{
				openapi3.NewSecurityRequirement().Authenticate(BearerScheme),
			}
		}
		o.Responses = responses
		return o
	}

	doc.AddOperation("/products", http.MethodGet, op("listProducts", "List all products", openapi3.Responses{
		"200": jsonResponse("All products in insertion order", listRefs),
	}))

	filter := op("filterProducts", "Filter products", openapi3.Responses{
		"200": jsonResponse("Matching products in insertion order", listRefs),
		"400": badRequest,
	},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("name").WithSchema(openapi3.NewStringSchema()).WithDescription("Case-insensitive name substring")},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("category").WithSchema(openapi3.NewStringSchema()).WithDescription("Case-insensitive category")},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("minPrice").WithSchema(openapi3.NewFloat64Schema()).WithDescription("Inclusive lower price bound")},
		&openapi3.ParameterRef{Value: openapi3.NewQueryParameter("maxPrice").WithSchema(openapi3.NewFloat64Schema()).WithDescription("Inclusive upper price bound")},
	)
	doc.AddOperation("/products/filter", http.MethodGet, filter)

	doc.AddOperation("/products/{id}", http.MethodGet, op("getProduct", "Get a product", openapi3.Responses{
		"200": jsonResponse("The product", productRefs),
		"400": badRequest,
		"404": notFound,
	}, idParam))

	create := op("createProduct", "Create a product", openapi3.Responses{
		"201": jsonResponse("The created product", productRefs),
		"400": badRequest,
	})
	create.RequestBody = body
	doc.AddOperation("/products", http.MethodPost, create)

	update := op("updateProduct", "Replace a product", openapi3.Responses{
		"204": emptyResponse("Updated"),
		"400": badRequest,
		"404": notFound,
	}, idParam)
	update.RequestBody = body
	doc.AddOperation("/products/{id}", http.MethodPut, update)

	doc.AddOperation("/products/{id}", http.MethodDelete, op("deleteProduct", "Delete a product", openapi3.Responses{
		"204": emptyResponse("Deleted, or already absent"),
		"400": badRequest,
	}, idParam))

	return doc
}

// Handler serves doc as JSON.
func Handler(doc *openapi3.T) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	}
}

func productSchema() *openapi3.Schema {
	s := openapi3.NewObjectSchema().
		WithProperty("id", openapi3.NewIntegerSchema()).
		WithProperty("name", openapi3.NewStringSchema().WithMaxLength(200)).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("price", openapi3.NewFloat64Schema().WithMin(0)).
		WithProperty("inventory", openapi3.NewIntegerSchema().WithMin(0)).
		WithProperty("category", openapi3.NewStringSchema().WithMaxLength(100)).
		WithProperty("active", openapi3.NewBoolSchema()).
		WithProperty("created_at", openapi3.NewDateTimeSchema()).
		WithProperty("updated_at", openapi3.NewDateTimeSchema())
	s.Required = []string{"id", "name", "price", "inventory", "active"}
	return s
}

func inputSchema() *openapi3.Schema {
	id := openapi3.NewIntegerSchema()
	id.Description = "Required on update, must equal the path id"
	s := openapi3.NewObjectSchema().
		WithProperty("id", id).
		WithProperty("name", openapi3.NewStringSchema().WithMinLength(1).WithMaxLength(200)).
		WithProperty("description", openapi3.NewStringSchema()).
		WithProperty("price", openapi3.NewFloat64Schema().WithMin(0)).
		WithProperty("inventory", openapi3.NewIntegerSchema().WithMin(0)).
		WithProperty("category", openapi3.NewStringSchema().WithMaxLength(100)).
		WithProperty("active", openapi3.NewBoolSchema().WithDefault(true))
	s.Required = []string{"name"}
	return s
}

func errorSchema() *openapi3.Schema {
	field := openapi3.NewObjectSchema().
		WithProperty("field", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema())
	s := openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithProperty("fields", openapi3.NewArraySchema().WithItems(field))
	s.Required = []string{"error"}
	return s
}
