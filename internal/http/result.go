package httpapi

// Response 与 dashboard 前端保持一致
// - 成功：{success: true, data: ...}
// - 失败：{success: false, message: "..."}
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func Ok(data any) Response {
	return Response{Success: true, Data: data}
}

func OkMessage(message string) Response {
	return Response{Success: true, Message: message}
}

func Fail(message string) Response {
	return Response{Success: false, Message: message}
}
