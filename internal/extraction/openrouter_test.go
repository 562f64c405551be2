package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("OpenRouter", func() {
	var (
		server    *ghttp.Server
		extractor *OpenRouter
		img       NormalizedImage
		text      string
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		extractor = NewOpenRouter(server.URL(), "test-key", "openai/gpt-4o-mini")
		img = NormalizedImage{Data: []byte("fake-jpeg-bytes"), Width: 10, Height: 10}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = extractor.Extract(context.Background(), img)
	})

	When("the model responds with text", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var body struct {
						Model    string `json:"model"`
						Messages []struct {
							Role    string          `json:"role"`
							Content json.RawMessage `json:"content"`
						} `json:"messages"`
						ResponseFormat struct {
							Type string `json:"type"`
						} `json:"response_format"`
					}
					Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
					Expect(body.Model).To(Equal("openai/gpt-4o-mini"))
					Expect(body.Messages).To(HaveLen(2))
					Expect(body.Messages[0].Role).To(Equal("system"))
					Expect(body.Messages[1].Role).To(Equal("user"))
					Expect(string(body.Messages[1].Content)).To(ContainSubstring(img.DataURI()))
					Expect(body.ResponseFormat.Type).To(Equal("json_object"))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"choices": []map[string]any{
						{"message": map[string]any{"content": `{"merchant":"Tesco"}`}},
					},
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the raw response text", func() {
			Expect(text).To(Equal(`{"merchant":"Tesco"}`))
		})

		It("issues exactly one request", func() {
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})
	})

	When("the API returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusTooManyRequests, "quota exceeded"))
		})

		It("returns an APIError carrying the status", func() {
			var apiErr *APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(apiErr.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(apiErr.Message).To(Equal("quota exceeded"))
		})
	})

	When("the API returns no choices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"choices": []any{},
			}))
		})

		It("returns an APIError", func() {
			var apiErr *APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
		})
	})

	When("no API key is configured", func() {
		BeforeEach(func() {
			extractor = NewOpenRouter(server.URL(), "", "")
		})

		It("fails without calling the API", func() {
			var apiErr *APIError
			Expect(errors.As(err, &apiErr)).To(BeTrue())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})

var _ = Describe("Disabled", func() {
	It("always fails with an APIError", func() {
		_, err := Disabled{}.Extract(context.Background(), NormalizedImage{})
		var apiErr *APIError
		Expect(errors.As(err, &apiErr)).To(BeTrue())
	})
})
