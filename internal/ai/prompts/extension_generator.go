package prompts

import "fmt"

// SystemInstruction directs the model to act as a Manifest V3 expert and to
// always answer with the file-set schema.
const SystemInstruction = `Bạn là một chuyên gia phát triển Chrome Extension (Manifest V3). 
Nhiệm vụ của bạn là tạo ra mã nguồn hoàn chỉnh cho một Chrome Extension dựa trên yêu cầu của người dùng.
Mã nguồn phải bao gồm đầy đủ các tệp cần thiết như manifest.json, popup.html, popup.js, content scripts hoặc background scripts nếu cần.
Đảm bảo mã nguồn tuân thủ các quy tắc bảo mật và hiệu suất mới nhất của Manifest V3.
Nếu cần icon, hãy tạo một hướng dẫn nhỏ trong README hoặc comment thay vì cung cấp file binary.
Kết quả trả về PHẢI là định dạng JSON hợp lệ theo schema yêu cầu.`

// Property descriptions shared by every provider's response schema.
const (
	SchemaName         = "extension_result"
	NameDescription    = "Tên của extension"
	DescDescription    = "Mô tả ngắn gọn"
	PathDescription    = "Đường dẫn file (VD: manifest.json, src/popup.js)"
	ContentDescription = "Nội dung của file"
)

// GetExtensionPrompt embeds the user's raw request verbatim.
func GetExtensionPrompt(userPrompt string) string {
	return fmt.Sprintf(`Hãy tạo Chrome Extension cho yêu cầu sau: "%s"`, userPrompt)
}
