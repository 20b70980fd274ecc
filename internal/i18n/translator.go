// Package i18n provides the language-keyed message template catalog.
//
// Every outbound text the core produces is rendered through a Translator so
// the dialog engine and the reminder sweeps stay channel- and
// language-agnostic.
package i18n

import (
	"fmt"
	"log/slog"

	"github.com/mediqueue/MediQueue/internal/models"
)

// Key identifies a message template.
type Key string

const (
	KeyChooseLanguage  Key = "choose_language"
	KeyMainMenu        Key = "main_menu"
	KeyInvalidMenu     Key = "invalid_menu"
	KeyAskPregKind     Key = "ask_pregnancy_kind"
	KeyAskPostKind     Key = "ask_postpartum_kind"
	KeyAskName         Key = "ask_name"
	KeyAskLMP          Key = "ask_lmp"
	KeyInvalidDate     Key = "invalid_date"
	KeyPastDate        Key = "past_date"
	KeyAskFirstPreg    Key = "ask_first_pregnancy"
	KeyAskSymptoms     Key = "ask_symptoms"
	KeyAskDelivery     Key = "ask_last_delivery"
	KeyAskFeeding      Key = "ask_breastfeeding"
	KeyAskInfertility  Key = "ask_infertility_duration"
	KeyInvalidYesNo    Key = "invalid_yes_no"
	KeyEmergencyMenu   Key = "emergency_symptom_menu"
	KeyEmergencyWhen   Key = "emergency_when"
	KeyEmergencyPreg   Key = "emergency_pregnant"
	KeyEmergencyWeeks  Key = "emergency_weeks"
	KeyEmergencyWalkIn Key = "emergency_walk_in"
	KeySelectDate      Key = "select_date"
	KeySelectTime      Key = "select_time"
	KeyNoSlots         Key = "no_slots"
	KeyInvalidTime     Key = "invalid_time"
	KeySlotTaken       Key = "slot_taken"
	KeyConfirmSummary  Key = "confirm_summary"
	KeyBookingDone     Key = "booking_done"
	KeyBookingAborted  Key = "booking_aborted"
	KeyMissingPatient  Key = "missing_patient"
	KeyModifyInfo      Key = "modify_info"
	KeyNoPatient       Key = "no_patient_record"
	KeyNoApptToday     Key = "no_appointment_today"
	KeyQueueStatus     Key = "queue_status"
	KeyStatusWithDoc   Key = "status_with_doctor"
	KeyStatusArrived   Key = "status_arrived"
	KeyStatusBooked    Key = "status_booked"
	KeyStatusOther     Key = "status_other"
	KeyWaitEstimate    Key = "wait_estimate"
	KeyGenericError    Key = "generic_error"

	KeyBookingConfirmation Key = "notify_booking_confirmation"
	KeyReminder24H         Key = "notify_reminder_24h"
	KeyReminder1H          Key = "notify_reminder_1h"
	KeyReminder30M         Key = "notify_reminder_30m"
	KeyQueueUpdate         Key = "notify_queue_update"
	KeyThankYou            Key = "notify_thank_you"
	KeyApptCancelled       Key = "notify_appointment_cancelled"
	KeyMilestone12W        Key = "notify_milestone_12w"
	KeyMilestone20W        Key = "notify_milestone_20w"
	KeyMilestone28W        Key = "notify_milestone_28w"
)

// Translator renders localized message templates.
type Translator interface {
	// Render formats the template for the given key and language. Unknown
	// keys render as the key itself; unknown languages fall back to English.
	Render(key Key, lang models.Language, args ...any) string
	// VisitTypeLabel returns the human-readable visit type name.
	VisitTypeLabel(vt models.VisitType, lang models.Language) string
}

// Catalog is the built-in bilingual (English/Arabic) Translator.
type Catalog struct{}

// NewCatalog returns the built-in template catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

var _ Translator = (*Catalog)(nil)

// Render implements Translator.
func (c *Catalog) Render(key Key, lang models.Language, args ...any) string {
	byLang, ok := templates[key]
	if !ok {
		slog.Error("Translator missing template", "key", key)
		return string(key)
	}
	tmpl, ok := byLang[lang]
	if !ok || tmpl == "" {
		tmpl = byLang[models.LanguageEnglish]
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// VisitTypeLabel implements Translator.
func (c *Catalog) VisitTypeLabel(vt models.VisitType, lang models.Language) string {
	labels, ok := visitTypeLabels[vt]
	if !ok {
		return string(vt)
	}
	if label, ok := labels[lang]; ok && label != "" {
		return label
	}
	return labels[models.LanguageEnglish]
}

var visitTypeLabels = map[models.VisitType]map[models.Language]string{
	models.VisitTypePregnancyFirst:    {models.LanguageEnglish: "Pregnancy First Visit", models.LanguageArabic: "زيارة الحمل الأولى"},
	models.VisitTypePregnancyFollowup: {models.LanguageEnglish: "Pregnancy Follow-up", models.LanguageArabic: "متابعة الحمل"},
	models.VisitTypeUltrasound:        {models.LanguageEnglish: "Ultrasound", models.LanguageArabic: "فحص بالموجات فوق الصوتية"},
	models.VisitTypePostpartumNormal:  {models.LanguageEnglish: "Postpartum Follow-up (Normal)", models.LanguageArabic: "متابعة ما بعد الولادة (طبيعية)"},
	models.VisitTypePostpartumCSect:   {models.LanguageEnglish: "Postpartum Follow-up (C-section)", models.LanguageArabic: "متابعة ما بعد الولادة (قيصرية)"},
	models.VisitTypeFamilyPlanning:    {models.LanguageEnglish: "Family Planning", models.LanguageArabic: "تنظيم الأسرة"},
	models.VisitTypeInfertility:       {models.LanguageEnglish: "Infertility Consultation", models.LanguageArabic: "استشارة تأخر الإنجاب"},
	models.VisitTypeGeneralGyne:       {models.LanguageEnglish: "General Gynecology", models.LanguageArabic: "أمراض نساء عامة"},
	models.VisitTypePapSmear:          {models.LanguageEnglish: "Pap Smear", models.LanguageArabic: "مسحة عنق الرحم"},
	models.VisitTypeEmergency:         {models.LanguageEnglish: "Emergency Visit", models.LanguageArabic: "زيارة طارئة"},
}

var templates = map[Key]map[models.Language]string{
	KeyChooseLanguage: {
		models.LanguageEnglish: "👋 Welcome to the OB/GYN Clinic!\n\nPlease choose your language / الرجاء اختيار اللغة:\n\n1️⃣ English\n2️⃣ العربية\n\n*Reply with 1 or 2*",
	},
	KeyMainMenu: {
		models.LanguageEnglish: "👋 *Welcome to the OB/GYN Clinic!*\n\nPlease select an option by replying with the number:\n\n1️⃣ Book Pregnancy Visit (First visit / Follow-up)\n2️⃣ Book Ultrasound\n3️⃣ Postpartum Follow-up\n4️⃣ Family Planning\n5️⃣ Infertility / Trying to Conceive\n6️⃣ General Gynecology Issues\n7️⃣ Pap Smear / Cervical Screening\n8️⃣ Emergency Case\n9️⃣ Modify / Cancel Appointment\n🔟 Check My Queue Number\n\n*Reply with a number (1-10)*",
		models.LanguageArabic:  "👋 *أهلاً بك في عيادة النساء والتوليد!*\n\nالرجاء اختيار أحد الخيارات بالرد بالرقم:\n\n1️⃣ حجز زيارة حمل (أولى / متابعة)\n2️⃣ حجز فحص بالموجات فوق الصوتية\n3️⃣ متابعة ما بعد الولادة\n4️⃣ تنظيم الأسرة\n5️⃣ تأخر الإنجاب\n6️⃣ أمراض نساء عامة\n7️⃣ مسحة عنق الرحم\n8️⃣ حالة طارئة\n9️⃣ تعديل / إلغاء موعد\n🔟 معرفة رقم دوري\n\n*أرسلي رقماً من 1 إلى 10*",
	},
	KeyInvalidMenu: {
		models.LanguageEnglish: "❌ Invalid option. Please reply with a number from 1-10.",
		models.LanguageArabic:  "❌ خيار غير صحيح. الرجاء الرد برقم من 1 إلى 10.",
	},
	KeyAskPregKind: {
		models.LanguageEnglish: "📋 *Book Pregnancy Visit*\n\nIs this your first pregnancy visit or a follow-up?\n\n1️⃣ First visit\n2️⃣ Follow-up\n\n*Reply with 1 or 2*",
		models.LanguageArabic:  "📋 *حجز زيارة حمل*\n\nهل هذه زيارتك الأولى للحمل أم متابعة؟\n\n1️⃣ زيارة أولى\n2️⃣ متابعة\n\n*أرسلي 1 أو 2*",
	},
	KeyAskPostKind: {
		models.LanguageEnglish: "📋 *Postpartum Follow-up*\n\nWhat type of delivery did you have?\n\n1️⃣ Normal delivery\n2️⃣ C-section\n\n*Reply with 1 or 2*",
		models.LanguageArabic:  "📋 *متابعة ما بعد الولادة*\n\nما نوع الولادة؟\n\n1️⃣ ولادة طبيعية\n2️⃣ ولادة قيصرية\n\n*أرسلي 1 أو 2*",
	},
	KeyAskName: {
		models.LanguageEnglish: "Please provide your full name:\n\n*Reply with your name*",
		models.LanguageArabic:  "الرجاء إرسال اسمك الكامل:\n\n*أرسلي الاسم*",
	},
	KeyAskLMP: {
		models.LanguageEnglish: "Please provide the date of your Last Menstrual Period (LMP).\n\nFormat: DD/MM/YYYY (e.g., 15/11/2024)\n\n*Reply with the date*",
		models.LanguageArabic:  "الرجاء إرسال تاريخ آخر دورة شهرية.\n\nالصيغة: يوم/شهر/سنة (مثال: 15/11/2024)\n\n*أرسلي التاريخ*",
	},
	KeyInvalidDate: {
		models.LanguageEnglish: "❌ Invalid date format. Please use DD/MM/YYYY format (e.g., 15/11/2024)",
		models.LanguageArabic:  "❌ صيغة التاريخ غير صحيحة. الرجاء استخدام يوم/شهر/سنة (مثال: 15/11/2024)",
	},
	KeyPastDate: {
		models.LanguageEnglish: "❌ Cannot book appointments in the past. Please select a future date.",
		models.LanguageArabic:  "❌ لا يمكن الحجز في تاريخ سابق. الرجاء اختيار تاريخ قادم.",
	},
	KeyAskFirstPreg: {
		models.LanguageEnglish: "Is this your first pregnancy?\n\n1️⃣ Yes, first pregnancy\n2️⃣ No, I've had previous pregnancies\n\n*Reply with 1 or 2*",
		models.LanguageArabic:  "هل هذا حملك الأول؟\n\n1️⃣ نعم، الحمل الأول\n2️⃣ لا، لدي حمل سابق\n\n*أرسلي 1 أو 2*",
	},
	KeyAskSymptoms: {
		models.LanguageEnglish: "Do you have any current warning symptoms?\n\n1️⃣ No symptoms\n2️⃣ Bleeding\n3️⃣ Reduced fetal movements\n4️⃣ Severe pain\n5️⃣ Other symptoms\n\n*Reply with the number*",
		models.LanguageArabic:  "هل لديك أي أعراض تحذيرية حالياً؟\n\n1️⃣ لا توجد أعراض\n2️⃣ نزيف\n3️⃣ قلة حركة الجنين\n4️⃣ ألم شديد\n5️⃣ أعراض أخرى\n\n*أرسلي الرقم*",
	},
	KeyAskDelivery: {
		models.LanguageEnglish: "When was your last delivery?\n\nFormat: DD/MM/YYYY\n\n*Reply with the date*",
		models.LanguageArabic:  "متى كانت آخر ولادة؟\n\nالصيغة: يوم/شهر/سنة\n\n*أرسلي التاريخ*",
	},
	KeyAskFeeding: {
		models.LanguageEnglish: "Are you currently breastfeeding?\n\n1️⃣ Yes\n2️⃣ No\n\n*Reply with 1 or 2*",
		models.LanguageArabic:  "هل ترضعين طبيعياً حالياً؟\n\n1️⃣ نعم\n2️⃣ لا\n\n*أرسلي 1 أو 2*",
	},
	KeyAskInfertility: {
		models.LanguageEnglish: "How long have you been trying to conceive?\n\n*Reply with the duration (e.g., \"2 years\")*",
		models.LanguageArabic:  "منذ متى تحاولين الإنجاب؟\n\n*أرسلي المدة (مثال: \"سنتان\")*",
	},
	KeyInvalidYesNo: {
		models.LanguageEnglish: "❌ Please reply with 1 (yes) or 2 (no).",
		models.LanguageArabic:  "❌ الرجاء الرد بـ 1 (نعم) أو 2 (لا).",
	},
	KeyEmergencyMenu: {
		models.LanguageEnglish: "🚨 *EMERGENCY CASE*\n\nPlease select your main symptom:\n\n1️⃣ Heavy vaginal bleeding\n2️⃣ Decreased/absent fetal movement\n3️⃣ Sudden severe abdominal/pelvic pain\n4️⃣ Leakage of amniotic fluid (water breaking)\n5️⃣ Severe pain/infection at C-section wound\n6️⃣ High fever + severe headache + visual disturbances\n7️⃣ Other urgent symptom\n\n*Reply with the number*",
		models.LanguageArabic:  "🚨 *حالة طارئة*\n\nالرجاء اختيار العرض الرئيسي:\n\n1️⃣ نزيف مهبلي شديد\n2️⃣ قلة أو انعدام حركة الجنين\n3️⃣ ألم شديد مفاجئ في البطن أو الحوض\n4️⃣ تسرب السائل الأمنيوسي (نزول الماء)\n5️⃣ ألم أو التهاب شديد بجرح القيصرية\n6️⃣ حمى شديدة مع صداع واضطراب في الرؤية\n7️⃣ عرض عاجل آخر\n\n*أرسلي الرقم*",
	},
	KeyEmergencyWhen: {
		models.LanguageEnglish: "When did this symptom start?\n\n*Reply with approximate time (e.g., \"2 hours ago\", \"this morning\")*",
		models.LanguageArabic:  "متى بدأ هذا العرض؟\n\n*أرسلي الوقت التقريبي (مثال: \"قبل ساعتين\"، \"هذا الصباح\")*",
	},
	KeyEmergencyPreg: {
		models.LanguageEnglish: "Are you currently pregnant?\n\n1️⃣ Yes\n2️⃣ No\n\n*Reply with 1 or 2*",
		models.LanguageArabic:  "هل أنتِ حامل حالياً؟\n\n1️⃣ نعم\n2️⃣ لا\n\n*أرسلي 1 أو 2*",
	},
	KeyEmergencyWeeks: {
		models.LanguageEnglish: "How many weeks pregnant are you? (if you know)\n\n*Reply with number of weeks, or \"I don't know\"*",
		models.LanguageArabic:  "كم أسبوع حمل؟ (إن كنتِ تعرفين)\n\n*أرسلي عدد الأسابيع أو \"لا أعرف\"*",
	},
	KeyEmergencyWalkIn: {
		models.LanguageEnglish: "🚨 *EMERGENCY CASE REGISTERED*\n\nYour case has been marked as urgent. Please come to the clinic immediately and inform the reception that you are an emergency case.\n\n*If this is a life-threatening emergency, please go to the nearest hospital emergency department immediately.*",
		models.LanguageArabic:  "🚨 *تم تسجيل الحالة الطارئة*\n\nتم تصنيف حالتك كحالة عاجلة. الرجاء الحضور إلى العيادة فوراً وإبلاغ الاستقبال بأنك حالة طارئة.\n\n*إذا كانت الحالة تهدد الحياة، توجهي فوراً إلى أقرب قسم طوارئ.*",
	},
	KeySelectDate: {
		models.LanguageEnglish: "📅 *Select Appointment Date:*\n\n%s\n\n*Reply with the date in DD/MM/YYYY format*",
		models.LanguageArabic:  "📅 *اختاري تاريخ الموعد:*\n\n%s\n\n*أرسلي التاريخ بصيغة يوم/شهر/سنة*",
	},
	KeySelectTime: {
		models.LanguageEnglish: "⏰ *Select Time Slot:*\n\n%s\n\n*Reply with the number or time (e.g., \"09:00\")*",
		models.LanguageArabic:  "⏰ *اختاري وقت الموعد:*\n\n%s\n\n*أرسلي الرقم أو الوقت (مثال: \"09:00\")*",
	},
	KeyNoSlots: {
		models.LanguageEnglish: "❌ No available time slots for this date. Please select another date.",
		models.LanguageArabic:  "❌ لا توجد أوقات متاحة في هذا التاريخ. الرجاء اختيار تاريخ آخر.",
	},
	KeyInvalidTime: {
		models.LanguageEnglish: "❌ Invalid selection. Please choose a number from the list or a time in HH:MM format.",
		models.LanguageArabic:  "❌ اختيار غير صحيح. الرجاء اختيار رقم من القائمة أو وقت بصيغة ساعة:دقيقة.",
	},
	KeySlotTaken: {
		models.LanguageEnglish: "❌ That time slot was just taken. Please pick another time:\n\n%s",
		models.LanguageArabic:  "❌ تم حجز هذا الوقت للتو. الرجاء اختيار وقت آخر:\n\n%s",
	},
	KeyConfirmSummary: {
		models.LanguageEnglish: "✅ *Appointment Summary:*\n\n📋 Visit Type: %s\n📅 Date: %s\n⏰ Time: %s\n\n*Confirm your appointment?*\n1️⃣ Yes, confirm\n2️⃣ No, cancel\n\n*Reply with 1 or 2*",
		models.LanguageArabic:  "✅ *ملخص الموعد:*\n\n📋 نوع الزيارة: %s\n📅 التاريخ: %s\n⏰ الوقت: %s\n\n*هل تؤكدين الموعد؟*\n1️⃣ نعم، تأكيد\n2️⃣ لا، إلغاء\n\n*أرسلي 1 أو 2*",
	},
	KeyBookingDone: {
		models.LanguageEnglish: "✅ *APPOINTMENT CONFIRMED!*\n\n📋 Visit: %s\n📅 Date: %s\n⏰ Time: %s\n🔢 Queue Number: #%d\n\n*Please arrive 10-15 minutes before your appointment time.*\n\nThank you for choosing our clinic! Reply *MENU* to return to the main menu.",
		models.LanguageArabic:  "✅ *تم تأكيد الموعد!*\n\n📋 الزيارة: %s\n📅 التاريخ: %s\n⏰ الوقت: %s\n🔢 رقم الدور: #%d\n\n*الرجاء الحضور قبل الموعد بـ 10-15 دقيقة.*\n\nشكراً لاختيارك عيادتنا! أرسلي *قائمة* للعودة إلى القائمة الرئيسية.",
	},
	KeyBookingAborted: {
		models.LanguageEnglish: "Booking cancelled. You can start a new booking anytime by sending any message.",
		models.LanguageArabic:  "تم إلغاء الحجز. يمكنك البدء من جديد في أي وقت بإرسال أي رسالة.",
	},
	KeyMissingPatient: {
		models.LanguageEnglish: "❌ Patient information missing. Please start over by sending MENU.",
		models.LanguageArabic:  "❌ بيانات المريضة غير مكتملة. الرجاء البدء من جديد بإرسال قائمة.",
	},
	KeyModifyInfo: {
		models.LanguageEnglish: "To modify or cancel your appointment, please call our clinic directly or reply with your appointment reference number.\n\nFor assistance, please contact the clinic reception.",
		models.LanguageArabic:  "لتعديل أو إلغاء موعدك، الرجاء الاتصال بالعيادة مباشرة أو إرسال رقم مرجع الموعد.\n\nللمساعدة، الرجاء التواصل مع الاستقبال.",
	},
	KeyNoPatient: {
		models.LanguageEnglish: "We couldn't find your information. Please book an appointment first.",
		models.LanguageArabic:  "لم نتمكن من العثور على بياناتك. الرجاء حجز موعد أولاً.",
	},
	KeyNoApptToday: {
		models.LanguageEnglish: "You don't have an appointment scheduled for today.\n\nTo book an appointment, please reply with a number from the main menu.",
		models.LanguageArabic:  "ليس لديك موعد اليوم.\n\nلحجز موعد، الرجاء الرد برقم من القائمة الرئيسية.",
	},
	KeyQueueStatus: {
		models.LanguageEnglish: "📊 *Your Queue Status*\n\n%s\n\n*Appointment Details:*\n📅 Date: %s\n🕐 Time: %s\n🏥 Type: %s\n\nReply *MENU* to return to main menu.",
		models.LanguageArabic:  "📊 *حالة دورك*\n\n%s\n\n*تفاصيل الموعد:*\n📅 التاريخ: %s\n🕐 الوقت: %s\n🏥 النوع: %s\n\nأرسلي *قائمة* للعودة إلى القائمة الرئيسية.",
	},
	KeyStatusWithDoc: {
		models.LanguageEnglish: "✅ You are currently with the doctor.",
		models.LanguageArabic:  "✅ أنتِ الآن مع الطبيبة.",
	},
	KeyStatusArrived: {
		models.LanguageEnglish: "🟢 You have arrived. Queue position: %d",
		models.LanguageArabic:  "🟢 تم تسجيل وصولك. موقعك في الدور: %d",
	},
	KeyStatusBooked: {
		models.LanguageEnglish: "📋 Your appointment is confirmed.\n⏰ Time: %s\n📝 Queue Number: %d",
		models.LanguageArabic:  "📋 موعدك مؤكد.\n⏰ الوقت: %s\n📝 رقم الدور: %d",
	},
	KeyStatusOther: {
		models.LanguageEnglish: "Your appointment status: %s",
		models.LanguageArabic:  "حالة موعدك: %s",
	},
	KeyWaitEstimate: {
		models.LanguageEnglish: "⏱️ Estimated wait time: %d minutes",
		models.LanguageArabic:  "⏱️ وقت الانتظار المتوقع: %d دقيقة",
	},
	KeyGenericError: {
		models.LanguageEnglish: "❌ Something went wrong on our side. Please try again, or contact the clinic reception.",
		models.LanguageArabic:  "❌ حدث خطأ ما. الرجاء المحاولة مرة أخرى أو التواصل مع استقبال العيادة.",
	},
	KeyBookingConfirmation: {
		models.LanguageEnglish: "✅ *Appointment Confirmed*\n\n📅 *Date:* %s\n🕐 *Time:* %s\n🏥 *Type:* %s\n🔢 *Queue Number:* %d\n\n⏰ *Please arrive 10-15 minutes before your appointment time.*\n\nThank you for choosing our clinic! We look forward to seeing you.",
		models.LanguageArabic:  "✅ *تم تأكيد الموعد*\n\n📅 *التاريخ:* %s\n🕐 *الوقت:* %s\n🏥 *النوع:* %s\n🔢 *رقم الدور:* %d\n\n⏰ *الرجاء الحضور قبل الموعد بـ 10-15 دقيقة.*\n\nشكراً لاختيارك عيادتنا!",
	},
	KeyReminder24H: {
		models.LanguageEnglish: "⏰ *Reminder: Your Appointment is in 24 hours*\n\n📅 *Date:* %s\n🕐 *Time:* %s\n🔢 *Queue Number:* %d\n\nPlease be on time. We look forward to seeing you!",
		models.LanguageArabic:  "⏰ *تذكير: موعدك بعد 24 ساعة*\n\n📅 *التاريخ:* %s\n🕐 *الوقت:* %s\n🔢 *رقم الدور:* %d\n\nالرجاء الالتزام بالموعد!",
	},
	KeyReminder1H: {
		models.LanguageEnglish: "⏰ *Reminder: Your Appointment is in 1 hour*\n\n📅 *Date:* %s\n🕐 *Time:* %s\n🔢 *Queue Number:* %d\n\nPlease be on time. We look forward to seeing you!",
		models.LanguageArabic:  "⏰ *تذكير: موعدك بعد ساعة*\n\n📅 *التاريخ:* %s\n🕐 *الوقت:* %s\n🔢 *رقم الدور:* %d\n\nالرجاء الالتزام بالموعد!",
	},
	KeyReminder30M: {
		models.LanguageEnglish: "⏰ *Reminder: Your Appointment is in 30 minutes*\n\n📅 *Date:* %s\n🕐 *Time:* %s\n🔢 *Queue Number:* %d\n\nPlease be on time. We look forward to seeing you!",
		models.LanguageArabic:  "⏰ *تذكير: موعدك بعد 30 دقيقة*\n\n📅 *التاريخ:* %s\n🕐 *الوقت:* %s\n🔢 *رقم الدور:* %d\n\nالرجاء الالتزام بالموعد!",
	},
	KeyQueueUpdate: {
		models.LanguageEnglish: "📊 *Queue Update*\n\nThe doctor is currently seeing patients. Your queue number is %d.\n\n📍 Your position: %d\n⏱️ Estimated wait time: %d minutes\n\nPlease be ready when your number is called.",
		models.LanguageArabic:  "📊 *تحديث الدور*\n\nالطبيبة تستقبل المريضات حالياً. رقم دورك هو %d.\n\n📍 موقعك: %d\n⏱️ وقت الانتظار المتوقع: %d دقيقة\n\nالرجاء الاستعداد عند مناداة رقمك.",
	},
	KeyThankYou: {
		models.LanguageEnglish: "🙏 *Thank You for Visiting Our Clinic*\n\nWe hope you had a pleasant experience today. Your health is our priority.\n\n💬 *Quick Feedback*\nPlease reply with:\n👍 - Good experience\n👎 - Needs improvement\n\nYour feedback helps us serve you better.",
		models.LanguageArabic:  "🙏 *شكراً لزيارتك عيادتنا*\n\nنتمنى أن تكون تجربتك اليوم جيدة. صحتك أولويتنا.\n\n💬 *تقييم سريع*\nالرجاء الرد بـ:\n👍 - تجربة جيدة\n👎 - تحتاج تحسين",
	},
	KeyApptCancelled: {
		models.LanguageEnglish: "❌ *Appointment Cancelled*\n\nYour appointment on %s at %s has been cancelled.\n\nTo book a new appointment, reply with any message.",
		models.LanguageArabic:  "❌ *تم إلغاء الموعد*\n\nتم إلغاء موعدك بتاريخ %s الساعة %s.\n\nلحجز موعد جديد، أرسلي أي رسالة.",
	},
	KeyMilestone12W: {
		models.LanguageEnglish: "📅 *Pregnancy Milestone Reminder*\n\nYou are now around %d weeks pregnant. We recommend a follow-up pregnancy visit and possibly an ultrasound scan around this time.\n\nIf you haven't booked your appointment yet, you can easily book by replying to this message with any number from the main menu.",
		models.LanguageArabic:  "📅 *تذكير بمرحلة الحمل*\n\nأنتِ الآن في الأسبوع %d تقريباً من الحمل. ننصح بزيارة متابعة وربما فحص بالموجات فوق الصوتية في هذه الفترة.\n\nإذا لم تحجزي موعدك بعد، يمكنك الحجز بسهولة بالرد على هذه الرسالة.",
	},
	KeyMilestone20W: {
		models.LanguageEnglish: "📅 *Pregnancy Milestone Reminder*\n\nYou are now around %d weeks pregnant. This is an important time for an anomaly scan (detailed ultrasound) to check your baby's development.\n\nIf you haven't booked your scan yet, you can easily book by replying to this message.",
		models.LanguageArabic:  "📅 *تذكير بمرحلة الحمل*\n\nأنتِ الآن في الأسبوع %d تقريباً من الحمل. هذه فترة مهمة لفحص التشوهات (الموجات فوق الصوتية التفصيلية) للاطمئنان على نمو الجنين.\n\nإذا لم تحجزي الفحص بعد، يمكنك الحجز بالرد على هذه الرسالة.",
	},
	KeyMilestone28W: {
		models.LanguageEnglish: "📅 *Pregnancy Milestone Reminder*\n\nYou are now entering your third trimester (around %d weeks). Regular follow-up visits become more important during this period.\n\nIf you haven't booked your follow-up appointment yet, you can easily book by replying to this message.",
		models.LanguageArabic:  "📅 *تذكير بمرحلة الحمل*\n\nأنتِ الآن في بداية الثلث الأخير من الحمل (الأسبوع %d تقريباً). تزداد أهمية زيارات المتابعة المنتظمة في هذه الفترة.\n\nإذا لم تحجزي موعد المتابعة بعد، يمكنك الحجز بالرد على هذه الرسالة.",
	},
}
